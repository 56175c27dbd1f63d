// Package models contains data types and constants shared by the advisor packages.
package models

// Endpoints for the collaborating services
const (
	EndpointCoinGecko = "https://api.coingecko.com/api/v3"
	PathCoinMarkets   = "/coins/markets"
	EndpointCanister  = "http://127.0.0.1:4943/chat"
)

// Fixed transcript texts
const (
	GreetingText      = "I help you build the best trading portfolio"
	PlaceholderText   = "Thinking ..."
	MarketFailureText = "Sorry, couldn't fetch crypto data."
)

// Market query defaults
const (
	DefaultCurrency = "usd"
	DefaultOrder    = "market_cap_desc"
)

// DefaultAssets returns the asset identifiers quoted with every query.
// A fresh slice is returned so callers may modify it.
func DefaultAssets() []string {
	return []string{"bitcoin", "ethereum", "ripple"}
}

// Advice backends
const (
	BackendCanister = "canister"
	BackendOpenAI   = "openai"
	BackendGemini   = "gemini"
)

// Default model names for the hosted backends
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// AvailableBackends returns the advice backend names in display order
func AvailableBackends() []string {
	return []string{BackendCanister, BackendOpenAI, BackendGemini}
}

// IsValidBackend reports whether name is a known advice backend
func IsValidBackend(name string) bool {
	for _, b := range AvailableBackends() {
		if b == name {
			return true
		}
	}
	return false
}

// DefaultHeaders returns the headers sent with every collaborator request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}
