package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mimic/internal/document"
	"github.com/conneroisu/mimic/internal/element"
)

var renderCmd = &cobra.Command{
	Use:     "render <document>",
	Aliases: []string{"r"},
	Short:   "Render a YAML or HTML document as indented HTML",
	Long: `Render loads an element tree and prints it as an HTML document.

With --out the document is written to a file instead, encoded as UTF-8, and
echoed to stdout unless --echo=false.

Examples:
  mimic render page.yaml                    # Print to stdout
  mimic render page.yaml -o page.html       # Write a file and echo it
  mimic render index.html --echo=false -o normalized.html`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), map[string]string{
			"render.output": "out",
			"render.echo":   "echo",
		})
	},
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("out", "o", "", "Write the rendered document to this file")
	renderCmd.Flags().Bool("echo", true, "Echo the rendered document to stdout when writing a file")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}

	root, err := document.LoadFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Render.Output == "" {
		r := element.NewRenderer(element.WithEcho(nil), element.WithLogger(logger))
		_, err := fmt.Fprint(out, r.Render(root))
		return err
	}

	var echo io.Writer
	if cfg.Render.Echo {
		echo = out
	}
	r := element.NewRenderer(element.WithEcho(echo), element.WithLogger(logger))
	if err := r.WriteFile(root, cfg.Render.Output); err != nil {
		return err
	}

	logger.Info(cmd.Context(), "Rendered document", "source", args[0], "output", cfg.Render.Output)
	return nil
}
