package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoleString(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleSystem, "system"},
		{RoleUser, "user"},
		{Role(7), "role(7)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.role.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		want    Role
		wantErr bool
	}{
		{"system", RoleSystem, false},
		{"user", RoleUser, false},
		{"assistant", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRole(%q) expected error", tt.name)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) unexpected error: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMessageJSON_VariantRole(t *testing.T) {
	data, err := json.Marshal(NewUserMessage("hello"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"role":{"user":null},"content":"hello"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded != NewUserMessage("hello") {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestRoleUnmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{`{"system":null}`, RoleSystem, false},
		{`"user"`, RoleUser, false},
		{`{"user":null,"system":null}`, 0, true},
		{`{"bot":null}`, 0, true},
		{`42`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var r Role
			err := json.Unmarshal([]byte(tt.input), &r)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r != tt.want {
				t.Errorf("got %v, want %v", r, tt.want)
			}
		})
	}
}

func TestRoleMarshal_Invalid(t *testing.T) {
	if _, err := json.Marshal(Message{Role: Role(9)}); err == nil {
		t.Error("expected error marshaling invalid role")
	}
}

func TestMarketQuote_Line(t *testing.T) {
	tests := []struct {
		name  string
		quote MarketQuote
		want  string
	}{
		{
			name:  "integer price",
			quote: MarketQuote{Name: "Bitcoin", Symbol: "btc", CurrentPrice: decimal.NewFromInt(65000)},
			want:  "Bitcoin (BTC): $65000",
		},
		{
			name:  "fractional price",
			quote: MarketQuote{Name: "XRP", Symbol: "xrp", CurrentPrice: decimal.RequireFromString("0.5234")},
			want:  "XRP (XRP): $0.5234",
		},
		{
			name:  "trailing zeros dropped",
			quote: MarketQuote{Name: "Ethereum", Symbol: "eth", CurrentPrice: decimal.RequireFromString("3200.50")},
			want:  "Ethereum (ETH): $3200.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quote.Line(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultAssets_Fresh(t *testing.T) {
	a := DefaultAssets()
	a[0] = "dogecoin"
	if DefaultAssets()[0] != "bitcoin" {
		t.Error("DefaultAssets should return a fresh slice")
	}
	if len(DefaultAssets()) != 3 {
		t.Errorf("expected 3 default assets, got %d", len(DefaultAssets()))
	}
}

func TestIsValidBackend(t *testing.T) {
	for _, b := range AvailableBackends() {
		if !IsValidBackend(b) {
			t.Errorf("IsValidBackend(%q) = false", b)
		}
	}
	if IsValidBackend("ollama") {
		t.Error("unknown backend reported valid")
	}
}
