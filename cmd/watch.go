package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mimic/internal/config"
	"github.com/conneroisu/mimic/internal/document"
	"github.com/conneroisu/mimic/internal/element"
	"github.com/conneroisu/mimic/internal/logging"
	"github.com/conneroisu/mimic/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch <document>",
	Aliases: []string{"w"},
	Short:   "Re-render a document whenever it changes",
	Long: `Watch renders a document to a file, then re-renders it each time the
document changes on disk. Failed loads are logged and the previous output is
left in place.

The output defaults to the document path with an .html extension, so YAML
sources need no --out. HTML sources must name a different output file.

Examples:
  mimic watch page.yaml                 # Writes page.html
  mimic watch page.yaml -o dist/index.html
  mimic watch page.yaml --debounce 1s`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), map[string]string{
			"render.output":  "out",
			"watch.debounce": "debounce",
		})
	},
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("out", "o", "", "Output file (default: document path with .html)")
	watchCmd.Flags().Duration("debounce", 0, "Delay before re-rendering after a change (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	source := args[0]
	output, err := watchOutput(source, cfg.Render.Output)
	if err != nil {
		return err
	}

	var echo io.Writer
	if cfg.Render.Echo {
		echo = cmd.OutOrStdout()
	}
	renderer := element.NewRenderer(element.WithEcho(echo), element.WithLogger(logger))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	render := func() {
		if err := renderDocument(renderer, source, output); err != nil {
			logger.Warn(ctx, err, "Render failed, keeping previous output", "source", source)
			return
		}
		logger.Info(ctx, "Rendered document", "source", source, "output", output)
	}

	fileWatcher, err := newDocumentWatcher(cfg, logger, source, func(events []watcher.ChangeEvent) error {
		render()
		return nil
	})
	if err != nil {
		return err
	}
	defer fileWatcher.Stop()

	render()

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s -> %s (Ctrl+C to stop)\n", source, output)
	<-ctx.Done()
	return nil
}

// watchOutput resolves the file a watched document renders to.
func watchOutput(source, configured string) (string, error) {
	output := configured
	if output == "" {
		ext := strings.ToLower(filepath.Ext(source))
		if ext == ".html" || ext == ".htm" {
			return "", fmt.Errorf("--out is required when watching an HTML document")
		}
		output = strings.TrimSuffix(source, filepath.Ext(source)) + ".html"
	}

	if filepath.Clean(output) == filepath.Clean(source) {
		return "", fmt.Errorf("output %s would overwrite the watched document", output)
	}
	return output, nil
}

func renderDocument(r *element.Renderer, source, output string) error {
	root, err := document.LoadFile(source)
	if err != nil {
		return err
	}
	return r.WriteFile(root, output)
}

func newDocumentWatcher(cfg *config.Config, logger logging.Logger, source string, handler watcher.ChangeHandler) (*watcher.FileWatcher, error) {
	fileWatcher, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fileWatcher.WatchFile(source); err != nil {
		fileWatcher.Stop()
		return nil, fmt.Errorf("failed to watch %s: %w", source, err)
	}
	fileWatcher.AddFilter(watcher.DocumentFilter)
	fileWatcher.AddHandler(handler)
	return fileWatcher, nil
}
