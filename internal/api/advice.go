package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/diogo/advisor/internal/config"
	apierrors "github.com/diogo/advisor/internal/errors"
	"github.com/diogo/advisor/internal/models"
)

// Advisor answers a conversation with a single advice text
type Advisor interface {
	Chat(ctx context.Context, messages []models.Message) (string, error)
}

// NewAdvisor builds the advice backend named in cfg
func NewAdvisor(ctx context.Context, cfg config.AdviceConfig, logger *log.Logger) (Advisor, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", models.BackendCanister:
		return NewCanisterAdvisor(cfg.URL, WithAdviceLogger(logger))
	case models.BackendOpenAI:
		return NewOpenAIAdvisor(cfg.APIKey(), cfg.Model, cfg.BaseURL, logger)
	case models.BackendGemini:
		return NewGeminiAdvisor(ctx, cfg.APIKey(), cfg.Model, cfg.BaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown advice backend %q (available: %s)",
			cfg.Backend, strings.Join(models.AvailableBackends(), ", "))
	}
}

// CanisterAdvisor posts the conversation to the advice canister's HTTP gateway
type CanisterAdvisor struct {
	httpClient tls_client.HttpClient
	url        string
	logger     *log.Logger
}

// AdviceOption configures a CanisterAdvisor
type AdviceOption func(*CanisterAdvisor)

// WithAdviceHTTPClient replaces the TLS transport
func WithAdviceHTTPClient(httpClient tls_client.HttpClient) AdviceOption {
	return func(a *CanisterAdvisor) {
		a.httpClient = httpClient
	}
}

// WithAdviceLogger sets the logger used for request diagnostics
func WithAdviceLogger(logger *log.Logger) AdviceOption {
	return func(a *CanisterAdvisor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewCanisterAdvisor creates an advisor for the gateway at url.
// An empty url selects the local replica default.
func NewCanisterAdvisor(url string, opts ...AdviceOption) (*CanisterAdvisor, error) {
	if url == "" {
		url = models.EndpointCanister
	}
	a := &CanisterAdvisor{
		url:    url,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.httpClient == nil {
		// Canister calls go through consensus and can be slow
		httpClient, err := NewTransport(300)
		if err != nil {
			return nil, err
		}
		a.httpClient = httpClient
	}
	return a, nil
}

type chatRequest struct {
	Messages []models.Message `json:"messages"`
}

// Chat sends the messages and returns the canister's answer
func (a *CanisterAdvisor) Chat(ctx context.Context, messages []models.Message) (string, error) {
	if len(messages) == 0 {
		return "", apierrors.ErrEmptyPrompt
	}

	payload, err := json.Marshal(chatRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to build payload: %w", err)
	}

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	setDefaultHeaders(req)
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	a.logger.Printf("[advice] POST %s request=%s messages=%d", a.url, requestID, len(messages))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("chat", a.url, err)
	}
	defer closeBody(resp)

	if !isSuccess(resp.StatusCode) {
		errorBody, _ := readBody(resp, maxErrorBody)
		a.logger.Printf("[advice] request=%s failed with status %d", requestID, resp.StatusCode)
		return "", parseRejectBody(resp.StatusCode, a.url, errorBody)
	}

	body, err := readBody(resp, maxResponseBody)
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("read chat response", a.url, err)
	}
	return ParseAdviceBody(body)
}

// ParseAdviceBody extracts the answer from a bare JSON string or {"response": "..."}.
// An empty answer is returned as is.
func ParseAdviceBody(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("body is not valid JSON", "")
	}

	parsed := gjson.ParseBytes(body)
	var text gjson.Result
	switch {
	case parsed.Type == gjson.String:
		text = parsed
	case parsed.IsObject():
		text = parsed.Get(PathAdviceResponse)
		if text.Type != gjson.String {
			return "", apierrors.NewParseError("missing response", PathAdviceResponse)
		}
	default:
		return "", apierrors.NewParseError("expected a string or an object", "")
	}

	return text.String(), nil
}

// parseRejectBody turns a failed gateway response into the most specific error.
// Reject bodies carry reject_code as a number or a name.
func parseRejectBody(status int, endpoint string, body []byte) error {
	apiErr := apierrors.NewAPIErrorWithBody(status, endpoint, "chat failed", string(body))
	if !gjson.ValidBytes(body) {
		return apiErr
	}

	parsed := gjson.ParseBytes(body)
	code := parsed.Get(PathRejectCode)
	if !code.Exists() {
		if msg := parsed.Get(PathErrorMessage); msg.Type == gjson.String {
			apiErr.Message = msg.String()
		}
		return apiErr
	}

	return &apierrors.RejectError{
		Code:    apierrors.ParseRejectCode(code.String()),
		Message: parsed.Get(PathRejectMessage).String(),
		Cause:   apiErr,
	}
}
