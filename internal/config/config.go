// Package config handles configuration for advisor.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/diogo/advisor/internal/models"
)

// Environment variables read by the application.
// API keys are only ever taken from the environment, never from config.json.
const (
	EnvBackend       = "ADVISOR_BACKEND"
	EnvAdviceURL     = "ADVISOR_ADVICE_URL"
	EnvCoinGeckoKey  = "COINGECKO_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvGeminiKey     = "GEMINI_API_KEY"
	configDirName    = ".advisor"
	configFileName   = "config.json"
	debugLogFileName = "debug.log"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// MarketConfig selects the price source and the quoted assets
type MarketConfig struct {
	BaseURL  string   `json:"base_url"`
	Currency string   `json:"currency"`
	Assets   []string `json:"assets"`
	Order    string   `json:"order"`
}

// APIKey returns the optional CoinGecko demo key
func (m MarketConfig) APIKey() string {
	return os.Getenv(EnvCoinGeckoKey)
}

// AdviceConfig selects the advice backend
type AdviceConfig struct {
	// Backend is "canister", "openai" or "gemini"
	Backend string `json:"backend"`
	// URL is the canister HTTP gateway
	URL string `json:"url"`
	// Model and BaseURL apply to the hosted LLM backends
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
}

// APIKey returns the key for the configured backend, if it needs one
func (a AdviceConfig) APIKey() string {
	switch strings.ToLower(a.Backend) {
	case models.BackendOpenAI:
		return os.Getenv(EnvOpenAIKey)
	case models.BackendGemini:
		return os.Getenv(EnvGeminiKey)
	default:
		return ""
	}
}

// ServerConfig configures `advisor serve`
type ServerConfig struct {
	Addr string `json:"addr"`
}

// Config represents the user configuration
type Config struct {
	Market MarketConfig `json:"market"`
	Advice AdviceConfig `json:"advice"`
	// Greeting is the first message of every transcript
	Greeting string `json:"greeting"`
	// Verbose enables diagnostics on stderr, or in debug.log for the TUI
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
	Server          ServerConfig   `json:"server"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Market: MarketConfig{
			BaseURL:  models.EndpointCoinGecko,
			Currency: models.DefaultCurrency,
			Assets:   models.DefaultAssets(),
			Order:    models.DefaultOrder,
		},
		Advice: AdviceConfig{
			Backend: models.BackendCanister,
			URL:     models.EndpointCanister,
		},
		Greeting:        models.GreetingText,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
		Server:          ServerConfig{Addr: ":8080"},
	}
}

// Validate reports the first setting that cannot work
func (c Config) Validate() error {
	if strings.TrimSpace(c.Market.Currency) == "" {
		return errors.New("market.currency must not be empty")
	}
	if len(c.Market.Assets) == 0 {
		return errors.New("market.assets must list at least one asset id")
	}
	for i, id := range c.Market.Assets {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("market.assets[%d] is empty", i)
		}
	}

	if !models.IsValidBackend(strings.ToLower(c.Advice.Backend)) {
		return fmt.Errorf("unknown advice backend %q (available: %s)",
			c.Advice.Backend, strings.Join(models.AvailableBackends(), ", "))
	}
	return nil
}

// ApplyEnv overrides file settings with ADVISOR_* environment variables
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		c.Advice.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAdviceURL)); v != "" {
		c.Advice.URL = v
	}
}

// LoadDotEnv loads a .env file from the working directory into the
// environment. Variables already set are kept. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, configDirName)
	return configDir, nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

// GetDebugLogPath returns the path the TUI writes verbose logs to
func GetDebugLogPath() (string, error) {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, debugLogFileName), nil
}

// LoadConfig loads the configuration from disk and applies the environment
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnv()
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, configFileName)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
