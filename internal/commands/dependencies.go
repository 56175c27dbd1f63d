package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/diogo/advisor/internal/api"
	"github.com/diogo/advisor/internal/config"
	"github.com/diogo/advisor/internal/models"
	"github.com/diogo/advisor/internal/orchestrator"
	"github.com/diogo/advisor/internal/server"
	"github.com/diogo/advisor/internal/transcript"
	"github.com/diogo/advisor/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctx context.Context, orch *orchestrator.Orchestrator, cfg config.Config) error
}

// ServerRunner starts the HTTP layer; tests replace it to avoid binding a port.
type ServerRunner func(ctx context.Context, srv *server.Server, addr string) error

// Dependencies holds the external dependencies for the commands.
// Nil collaborators are built from the loaded configuration.
type Dependencies struct {
	// Prices overrides the CoinGecko client.
	Prices api.PriceSource

	// Advisor overrides the backend selected by config.
	Advisor api.Advisor

	// TUI is the terminal user interface.
	TUI TUIInterface

	// Serve runs the HTTP server.
	Serve ServerRunner

	// LoadConfig reads the user configuration.
	LoadConfig func() (config.Config, error)

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctx context.Context, orch *orchestrator.Orchestrator, cfg config.Config) error {
	return tui.RunChat(ctx, orch, cfg)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI: &DefaultTUI{},
		Serve: func(ctx context.Context, srv *server.Server, addr string) error {
			return srv.ListenAndServe(ctx, addr)
		},
		LoadConfig: func() (config.Config, error) {
			if err := config.LoadDotEnv(); err != nil {
				return config.Config{}, err
			}
			return config.LoadConfig()
		},
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	backend  string
	currency string
	assets   []string
	verbose  bool
}

// loadConfig reads the configuration, applies flag overrides and validates it
func (d *Dependencies) loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := d.LoadConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	if flags.backend != "" {
		cfg.Advice.Backend = flags.backend
	}
	if flags.currency != "" {
		cfg.Market.Currency = strings.ToLower(flags.currency)
	}
	if len(flags.assets) > 0 {
		cfg.Market.Assets = flags.assets
	}
	if flags.verbose {
		cfg.Verbose = true
	}
	if cfg.Greeting == "" {
		cfg.Greeting = models.GreetingText
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger returns a logger writing to w when verbose, or discarding otherwise
func newLogger(verbose bool, w io.Writer) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(w, "", log.LstdFlags)
}

// buildOrchestrator wires the collaborators into a fresh transcript
func (d *Dependencies) buildOrchestrator(ctx context.Context, cfg config.Config, logger *log.Logger, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	prices := d.Prices
	if prices == nil {
		client, err := api.NewMarketClient(
			api.WithMarketBaseURL(cfg.Market.BaseURL),
			api.WithOrder(cfg.Market.Order),
			api.WithMarketAPIKey(cfg.Market.APIKey()),
			api.WithMarketLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create market client: %w", err)
		}
		prices = client
	}

	advisor := d.Advisor
	if advisor == nil {
		a, err := api.NewAdvisor(ctx, cfg.Advice, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create advisor: %w", err)
		}
		advisor = a
	}

	store := transcript.New(models.NewSystemMessage(cfg.Greeting))
	base := []orchestrator.Option{
		orchestrator.WithCurrency(cfg.Market.Currency),
		orchestrator.WithAssets(cfg.Market.Assets...),
		orchestrator.WithLogger(logger),
	}
	return orchestrator.New(store, prices, advisor, append(base, opts...)...), nil
}
