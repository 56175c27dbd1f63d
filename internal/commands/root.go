// Package commands provides CLI commands for advisor.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// askFlags are the one-shot query flags of the root command
type askFlags struct {
	file   string
	output string
	raw    bool
}

// NewRootCmd creates the advisor command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps == nil {
		deps = NewDependencies()
	}
	flags := &globalFlags{}
	ask := &askFlags{}

	cmd := &cobra.Command{
		Use:   "advisor [question]",
		Short: "Crypto portfolio advice with live market prices",
		Long: `advisor answers investment questions. Every question is sent to the
advice service together with the current prices of the tracked assets.

Examples:
  advisor chat                            Start interactive chat
  advisor "Should I rebalance?"           Ask a single question
  advisor -f question.md                  Read the question from file
  cat question.md | advisor               Read the question from stdin
  advisor quotes                          Show the prices sent with questions
  advisor serve --addr :8080              Serve the chat over HTTP
  advisor "Hold or sell?" -o answer.md    Save the answer to file`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "advisor %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if ask.file != "" {
				data, err := os.ReadFile(ask.file)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				return runAsk(cmd.Context(), deps, flags, ask, string(data))
			}

			if hasPipedInput(deps.Stdin) {
				data, err := io.ReadAll(deps.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				return runAsk(cmd.Context(), deps, flags, ask, string(data))
			}

			if len(args) > 0 {
				return runAsk(cmd.Context(), deps, flags, ask, args[0])
			}

			return cmd.Help()
		},
	}

	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.PersistentFlags().StringVarP(&flags.backend, "backend", "b", "", "Advice backend (canister, openai, gemini)")
	cmd.PersistentFlags().StringVarP(&flags.currency, "currency", "c", "", "Quote currency (e.g., usd, eur)")
	cmd.PersistentFlags().StringSliceVarP(&flags.assets, "assets", "a", nil, "CoinGecko asset ids to quote (e.g., bitcoin,ethereum)")
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Log diagnostics to stderr")
	cmd.Flags().StringVarP(&ask.output, "output", "o", "", "Save answer to file")
	cmd.Flags().StringVarP(&ask.file, "file", "f", "", "Read question from file")
	cmd.Flags().BoolVar(&ask.raw, "raw", false, "Print only the answer text")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(NewChatCmd(deps, flags))
	cmd.AddCommand(NewServeCmd(deps, flags))
	cmd.AddCommand(NewQuotesCmd(deps, flags))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}

var rootCmd = NewRootCmd(nil)

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// hasPipedInput reports whether r is a pipe or file rather than a terminal
func hasPipedInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
