package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/mimic/internal/element"
)

var tagsCmd = &cobra.Command{
	Use:   "tags [name...]",
	Short: "List allowed tag names, or check the given names",
	Long: `Without arguments, tags prints every tag name an element may use, one per
line in sorted order. With arguments, each name is checked against the list
and the command fails if any is not allowed.

Examples:
  mimic tags
  mimic tags div marquee blink`,
	RunE: runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		for _, tag := range element.Tags() {
			fmt.Fprintln(out, tag)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	var invalid []string
	for _, name := range args {
		status := "ok"
		if !element.IsValidTag(name) {
			status = "invalid"
			invalid = append(invalid, name)
		}
		fmt.Fprintf(w, "%s\t%s\n", name, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(invalid) > 0 {
		return fmt.Errorf("%d of %d tag names are not valid: %v", len(invalid), len(args), invalid)
	}
	return nil
}
