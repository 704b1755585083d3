package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapfmt/internal/server"
)

// DefaultAddr is where serve listens unless --addr is given.
const DefaultAddr = "127.0.0.1:8765"

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP formatting service",
		Long: `Serve formatting over HTTP.

Routes:
  POST /format    format a text/plain body, or a JSON request
                  {"sql": "...", "dialect": "...", "line_width": 80, "verify": true}
  GET  /dialects  list registered dialects
  GET  /healthz   liveness check

Every response carries an X-Request-ID header.`,
		Example: `  leapfmt serve --addr :8080
  curl --data-binary @query.sql localhost:8080/format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Config{
				Addr:   addr,
				Format: &cc.Cfg.FormatConfig,
				Logger: cc.Logger,
			})
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", DefaultAddr, "Address to listen on")
	return cmd
}
