package commands

import (
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/diogo/advisor/internal/config"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with the advisor.

Every question is sent with the current prices of the tracked assets.
Type 'exit', 'quit', or press Ctrl+C to end the session.
Use '/export <file>' to save the transcript as markdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.loadConfig(flags)
			if err != nil {
				return err
			}

			// The TUI owns the terminal, so diagnostics go to the debug log
			logger := log.New(io.Discard, "", 0)
			if cfg.Verbose {
				path, err := config.GetDebugLogPath()
				if err != nil {
					return err
				}
				f, err := tea.LogToFileWith(path, "advisor", logger)
				if err != nil {
					return fmt.Errorf("failed to open debug log: %w", err)
				}
				defer f.Close()
			}

			orch, err := deps.buildOrchestrator(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return deps.TUI.RunChat(cmd.Context(), orch, cfg)
		},
	}
}
