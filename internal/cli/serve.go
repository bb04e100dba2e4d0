package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/api"
	"github.com/uosnotice/programrank/internal/logging"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API serving recommendations, explanations, program
listings and deduplication, plus /health and /metrics.

Examples:
  programrank serve
  programrank serve --port 9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, cfg, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.New(svc, cfg.Server, version, logging.With("api"))
	return server.ListenAndServe(ctx)
}
