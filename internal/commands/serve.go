package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/diogo/advisor/internal/orchestrator"
	"github.com/diogo/advisor/internal/server"
)

// NewServeCmd creates the HTTP server command
func NewServeCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat over HTTP",
		Long: `Serve one shared conversation over HTTP.

Routes:
  GET  /                 Browser chat page
  GET  /api/transcript   Current transcript
  POST /api/messages     Ask a question: {"content": "..."}
  GET  /api/events       Websocket stream of snapshots, states and alerts
  GET  /healthz          Liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.loadConfig(flags)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			logger := log.New(deps.Stderr, "", log.LstdFlags)
			hub := server.NewHub(logger)

			orch, err := deps.buildOrchestrator(cmd.Context(), cfg, logger,
				orchestrator.WithAlerter(hub),
				orchestrator.WithStateObserver(hub.PublishState),
			)
			if err != nil {
				return err
			}

			srv := server.New(orch, hub, server.WithLogger(logger))
			defer srv.Close()

			fmt.Fprintf(deps.Stderr, "advisor serving on %s (backend %s)\n", addr, cfg.Advice.Backend)
			return deps.Serve(cmd.Context(), srv, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
