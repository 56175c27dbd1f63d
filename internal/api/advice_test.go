package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/diogo/advisor/internal/config"
	apierrors "github.com/diogo/advisor/internal/errors"
	"github.com/diogo/advisor/internal/models"
)

func mustRequest(t *testing.T) *fhttp.Request {
	t.Helper()
	req, err := fhttp.NewRequest(fhttp.MethodGet, "http://example.test/", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	return req
}

func TestCanisterAdvisor_Chat(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bare string", `"Diversify into BTC and ETH."`, "Diversify into BTC and ETH."},
		{"response object", `{"response":"Hold."}`, "Hold."},
		{"empty answer", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockHTTPClient(200, tt.body)
			advisor, err := NewCanisterAdvisor("http://canister.test/chat", WithAdviceHTTPClient(mock))
			if err != nil {
				t.Fatalf("NewCanisterAdvisor() error = %v", err)
			}

			got, err := advisor.Chat(context.Background(), []models.Message{models.NewUserMessage("prompt text")})
			if err != nil {
				t.Fatalf("Chat() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Chat() = %q, want %q", got, tt.want)
			}

			req := mock.lastRequest
			if req.Method != "POST" || req.URL.String() != "http://canister.test/chat" {
				t.Errorf("request = %s %s", req.Method, req.URL)
			}
			if req.Header.Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %s", req.Header.Get("Content-Type"))
			}
			if _, err := uuid.Parse(req.Header.Get("X-Request-Id")); err != nil {
				t.Errorf("X-Request-Id is not a uuid: %v", err)
			}

			payload := gjson.ParseBytes(mock.lastBody)
			if !payload.Get("messages.0.role.user").Exists() {
				t.Errorf("role should be encoded as a variant, payload = %s", mock.lastBody)
			}
			if payload.Get("messages.0.content").String() != "prompt text" {
				t.Errorf("content = %s", payload.Get("messages.0.content"))
			}
			if payload.Get("messages.#").Int() != 1 {
				t.Errorf("messages count = %d", payload.Get("messages.#").Int())
			}
		})
	}
}

func TestCanisterAdvisor_DefaultURL(t *testing.T) {
	mock := newMockHTTPClient(200, `"ok"`)
	advisor, _ := NewCanisterAdvisor("", WithAdviceHTTPClient(mock))
	if _, err := advisor.Chat(context.Background(), []models.Message{models.NewUserMessage("q")}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if mock.lastRequest.URL.String() != models.EndpointCanister {
		t.Errorf("URL = %s, want %s", mock.lastRequest.URL, models.EndpointCanister)
	}
}

func TestCanisterAdvisor_EmptyConversation(t *testing.T) {
	mock := newMockHTTPClient(200, `"ok"`)
	advisor, _ := NewCanisterAdvisor("http://canister.test/chat", WithAdviceHTTPClient(mock))
	_, err := advisor.Chat(context.Background(), nil)
	if !errors.Is(err, apierrors.ErrEmptyPrompt) {
		t.Errorf("Chat(nil) error = %v, want ErrEmptyPrompt", err)
	}
	if mock.calls != 0 {
		t.Error("no request should be sent")
	}
}

func TestCanisterAdvisor_Failures(t *testing.T) {
	tests := []struct {
		name      string
		mock      *mockHTTPClient
		wantAlert string
		wantCode  apierrors.RejectCode
		wantOK    bool
	}{
		{
			name:      "numeric reject code",
			mock:      newMockHTTPClient(503, `{"reject_code":4,"reject_message":"insufficient cycles"}`),
			wantAlert: "insufficient cycles",
			wantCode:  apierrors.RejectCanisterReject,
			wantOK:    true,
		},
		{
			name:      "named reject code",
			mock:      newMockHTTPClient(503, `{"reject_code":"SysTransient","reject_message":"canister is stopping"}`),
			wantAlert: "canister is stopping",
			wantCode:  apierrors.RejectSysTransient,
			wantOK:    true,
		},
		{
			name:     "canister error is not alerted",
			mock:     newMockHTTPClient(500, `{"reject_code":5,"reject_message":"trapped"}`),
			wantCode: apierrors.RejectCanisterError,
		},
		{
			name:      "text reject in plain body",
			mock:      newMockHTTPClient(502, `Call failed: Reject code: CanisterReject, "out of memory"`),
			wantAlert: "out of memory",
			wantOK:    true,
		},
		{
			name: "unrecognizable body",
			mock: newMockHTTPClient(500, `{"error":"internal"}`),
		},
		{
			name: "network failure",
			mock: newMockHTTPClientWithError(errors.New("connection reset by peer")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advisor, _ := NewCanisterAdvisor("http://canister.test/chat", WithAdviceHTTPClient(tt.mock))
			_, err := advisor.Chat(context.Background(), []models.Message{models.NewUserMessage("q")})
			if err == nil {
				t.Fatal("Chat() should fail")
			}

			if tt.wantCode != apierrors.RejectUnknown {
				rejectErr, ok := apierrors.AsReject(err)
				if !ok {
					t.Fatalf("want RejectError, got %T", err)
				}
				if rejectErr.Code != tt.wantCode {
					t.Errorf("Code = %v, want %v", rejectErr.Code, tt.wantCode)
				}
			}

			alert, ok := apierrors.AlertMessage(err)
			if ok != tt.wantOK || alert != tt.wantAlert {
				t.Errorf("AlertMessage() = %q, %v, want %q, %v", alert, ok, tt.wantAlert, tt.wantOK)
			}
		})
	}
}

func TestParseRejectBody_ErrorField(t *testing.T) {
	err := parseRejectBody(400, "ep", []byte(`{"error":"bad prompt"}`))
	if !strings.Contains(err.Error(), "bad prompt") {
		t.Errorf("Error() = %s", err.Error())
	}
	if apierrors.GetHTTPStatus(err) != 400 {
		t.Errorf("status = %d", apierrors.GetHTTPStatus(err))
	}
}

func TestParseAdviceBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"string", `"advice"`, "advice", nil},
		{"object", `{"response":"advice"}`, "advice", nil},
		{"empty string", `""`, "", nil},
		{"blank", `"   "`, "   ", nil},
		{"empty response field", `{"response":""}`, "", nil},
		{"object without response", `{"answer":"x"}`, "", apierrors.ErrInvalidResponse},
		{"array", `["x"]`, "", apierrors.ErrInvalidResponse},
		{"garbage", `not json`, "", apierrors.ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAdviceBody([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseAdviceBody() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAdviceBody() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseAdviceBody() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewAdvisor(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	canister, err := NewAdvisor(context.Background(), config.AdviceConfig{Backend: "canister", URL: "http://x.test/chat"}, nil)
	if err != nil {
		t.Fatalf("NewAdvisor(canister) error = %v", err)
	}
	if _, ok := canister.(*CanisterAdvisor); !ok {
		t.Errorf("NewAdvisor(canister) = %T", canister)
	}

	if _, err := NewAdvisor(context.Background(), config.AdviceConfig{Backend: "openai"}, nil); err == nil {
		t.Error("openai without key should fail")
	}
	if _, err := NewAdvisor(context.Background(), config.AdviceConfig{Backend: "gemini"}, nil); err == nil {
		t.Error("gemini without key should fail")
	}
	if _, err := NewAdvisor(context.Background(), config.AdviceConfig{Backend: "oracle"}, nil); err == nil {
		t.Error("unknown backend should fail")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	openaiAdvisor, err := NewAdvisor(context.Background(), config.AdviceConfig{Backend: "OpenAI"}, nil)
	if err != nil {
		t.Fatalf("NewAdvisor(openai) error = %v", err)
	}
	if a, ok := openaiAdvisor.(*OpenAIAdvisor); !ok || a.model != models.DefaultOpenAIModel {
		t.Errorf("NewAdvisor(openai) = %#v", openaiAdvisor)
	}
}
