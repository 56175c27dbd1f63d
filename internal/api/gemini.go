package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"google.golang.org/genai"

	apierrors "github.com/diogo/advisor/internal/errors"
	"github.com/diogo/advisor/internal/models"
)

// contentGenerator is the part of genai.Models the advisor uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAdvisor answers through the Gemini API
type GeminiAdvisor struct {
	models contentGenerator
	model  string
	logger *log.Logger
}

// NewGeminiAdvisor creates an advisor backed by the Gemini API
func NewGeminiAdvisor(ctx context.Context, apiKey, model, baseURL string, logger *log.Logger) (*GeminiAdvisor, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newGeminiAdvisor(client.Models, model, logger), nil
}

func newGeminiAdvisor(gen contentGenerator, model string, logger *log.Logger) *GeminiAdvisor {
	if model == "" {
		model = models.DefaultGeminiModel
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &GeminiAdvisor{models: gen, model: model, logger: logger}
}

// Chat sends the messages as contents and returns the concatenated answer text
func (a *GeminiAdvisor) Chat(ctx context.Context, messages []models.Message) (string, error) {
	if len(messages) == 0 {
		return "", apierrors.ErrEmptyPrompt
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if !m.IsUser() {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	a.logger.Printf("[advice] gemini model=%s messages=%d", a.model, len(messages))

	resp, err := a.models.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return "", mapGeminiError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", apierrors.ErrNoContent
	}
	return resp.Text(), nil
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr):
		apiErr = *apiErrPtr
	default:
		return apierrors.NewNetworkErrorWithEndpoint("generate content", "gemini", err)
	}

	if code := apierrors.RejectCodeFromHTTPStatus(apiErr.Code); code != apierrors.RejectUnknown {
		return &apierrors.RejectError{Code: code, Message: apiErr.Message, Cause: err}
	}
	return apierrors.NewAPIError(apiErr.Code, "gemini", apiErr.Message)
}
