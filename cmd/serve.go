package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mimic/internal/preview"
)

var serveCmd = &cobra.Command{
	Use:     "serve <document>",
	Aliases: []string{"s"},
	Short:   "Preview a document in the browser with live reload",
	Long: `Serve renders a document over HTTP and reloads open pages whenever the
file changes. A document that fails to load is shown as an error page until
it is fixed.

Routes:
  /        the rendered document
  /find    JSON query endpoint (?id=, ?tag= or ?attr=&value=)
  /health  server status
  /ws      live reload socket

Examples:
  mimic serve page.yaml
  mimic serve page.yaml --port 3000 --host 0.0.0.0`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), map[string]string{
			"server.port":    "port",
			"server.host":    "host",
			"watch.debounce": "debounce",
		})
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Duration("debounce", 0, "Delay before reloading after a change (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	srv, err := preview.New(cfg, args[0], logger)
	if err != nil {
		return fmt.Errorf("failed to create preview server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s (Ctrl+C to stop)\n", args[0], cfg.Address())
	return srv.Start(ctx)
}
