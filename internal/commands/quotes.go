package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/diogo/advisor/internal/api"
	"github.com/diogo/advisor/internal/models"
	"github.com/diogo/advisor/internal/render"
)

// NewQuotesCmd creates the command that prints the tracked prices
func NewQuotesCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Show current prices of the tracked assets",
		Long: `Fetch the prices that are attached to every question.

With --raw the lines are printed exactly as they appear in the prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.loadConfig(flags)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Verbose, deps.Stderr)

			prices := deps.Prices
			if prices == nil {
				client, err := api.NewMarketClient(
					api.WithMarketBaseURL(cfg.Market.BaseURL),
					api.WithOrder(cfg.Market.Order),
					api.WithMarketAPIKey(cfg.Market.APIKey()),
					api.WithMarketLogger(logger),
				)
				if err != nil {
					return fmt.Errorf("failed to create market client: %w", err)
				}
				prices = client
			}

			quotes, err := prices.Quotes(cmd.Context(), cfg.Market.Currency, cfg.Market.Assets)
			if err != nil {
				fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Failed to fetch prices"))
				return fmt.Errorf("failed to fetch prices: %w", err)
			}

			if raw {
				for _, q := range quotes {
					fmt.Fprintln(deps.Stdout, q.Line())
				}
				return nil
			}

			fmt.Fprintln(deps.Stdout, quotesTable(quotes, cfg.Market.Currency))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print prompt lines instead of a table")
	return cmd
}

func quotesTable(quotes []models.MarketQuote, currency string) string {
	theme := render.GetTUITheme()
	headerStyle := lipgloss.NewStyle().Foreground(theme.Advisor).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(theme.Text).Padding(0, 1)
	priceStyle := cellStyle.Align(lipgloss.Right)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.TextDim)).
		Headers("ASSET", "SYMBOL", "PRICE ("+strings.ToUpper(currency)+")").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 2:
				return priceStyle
			default:
				return cellStyle
			}
		})

	for _, q := range quotes {
		t.Row(q.Name, q.Ticker(), models.FormatPrice(q.CurrentPrice, currency))
	}
	return t.Render()
}
