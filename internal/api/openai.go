package api

import (
	"context"
	"errors"
	"io"
	"log"

	openai "github.com/sashabaranov/go-openai"

	apierrors "github.com/diogo/advisor/internal/errors"
	"github.com/diogo/advisor/internal/models"
)

// chatCompleter is the part of *openai.Client the advisor uses
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIAdvisor answers through an OpenAI compatible chat completion API
type OpenAIAdvisor struct {
	client chatCompleter
	model  string
	logger *log.Logger
}

// NewOpenAIAdvisor creates an advisor for the OpenAI API or any compatible baseURL
func NewOpenAIAdvisor(apiKey, model, baseURL string, logger *log.Logger) (*OpenAIAdvisor, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return newOpenAIAdvisor(openai.NewClientWithConfig(cfg), model, logger), nil
}

func newOpenAIAdvisor(client chatCompleter, model string, logger *log.Logger) *OpenAIAdvisor {
	if model == "" {
		model = models.DefaultOpenAIModel
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &OpenAIAdvisor{client: client, model: model, logger: logger}
}

// Chat sends the messages as a chat completion and returns the first choice
func (a *OpenAIAdvisor) Chat(ctx context.Context, messages []models.Message) (string, error) {
	if len(messages) == 0 {
		return "", apierrors.ErrEmptyPrompt
	}

	req := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if !m.IsUser() {
			role = openai.ChatMessageRoleAssistant
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	a.logger.Printf("[advice] openai model=%s messages=%d", a.model, len(messages))

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apierrors.ErrNoContent
	}
	return resp.Choices[0].Message.Content, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code := apierrors.RejectCodeFromHTTPStatus(apiErr.HTTPStatusCode); code != apierrors.RejectUnknown {
			return &apierrors.RejectError{Code: code, Message: apiErr.Message, Cause: err}
		}
		return apierrors.NewAPIError(apiErr.HTTPStatusCode, "openai", apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if code := apierrors.RejectCodeFromHTTPStatus(reqErr.HTTPStatusCode); code != apierrors.RejectUnknown {
			return &apierrors.RejectError{Code: code, Message: reqErr.Error(), Cause: err}
		}
	}
	return apierrors.NewNetworkErrorWithEndpoint("chat completion", "openai", err)
}
