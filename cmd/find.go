package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/mimic/internal/document"
	"github.com/conneroisu/mimic/internal/element"
)

var findCmd = &cobra.Command{
	Use:     "find <document>",
	Aliases: []string{"f"},
	Short:   "Find elements by id, tag name or attribute",
	Long: `Find searches a document's element tree, root included, and lists the
matches in document order.

Attribute values are compared by their text form, so --value 100 matches a
numeric width of 100.

Examples:
  mimic find page.yaml --id main
  mimic find page.yaml --tag p -f json
  mimic find page.yaml --attr class --value note -f yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

var (
	findID     string
	findTag    string
	findAttr   string
	findValue  string
	findFormat string
)

func init() {
	rootCmd.AddCommand(findCmd)

	findCmd.Flags().StringVar(&findID, "id", "", "Match the element with this id")
	findCmd.Flags().StringVarP(&findTag, "tag", "t", "", "Match elements with this tag name")
	findCmd.Flags().StringVar(&findAttr, "attr", "", "Match elements with this attribute (use with --value)")
	findCmd.Flags().StringVar(&findValue, "value", "", "Attribute value to match with --attr")
	findCmd.Flags().StringVarP(&findFormat, "format", "f", "table", "Output format (table, json, yaml)")

	findCmd.MarkFlagsOneRequired("id", "tag", "attr")
	findCmd.MarkFlagsMutuallyExclusive("id", "tag", "attr")
}

type foundAttr struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

type findResult struct {
	Tag        string      `json:"tag" yaml:"tag"`
	ID         string      `json:"id,omitempty" yaml:"id,omitempty"`
	Attributes []foundAttr `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Children   int         `json:"children" yaml:"children"`
	HTML       string      `json:"html" yaml:"html"`
}

func runFind(cmd *cobra.Command, args []string) error {
	if err := validateFormat(findFormat, "table", "json", "yaml"); err != nil {
		return err
	}

	if _, _, err := loadRuntime(cmd); err != nil {
		return err
	}

	root, err := document.LoadFile(args[0])
	if err != nil {
		return err
	}

	var nodes []*element.Node
	switch {
	case cmd.Flags().Changed("id"):
		nodes = element.FindByID(root, findID)
	case cmd.Flags().Changed("tag"):
		nodes = element.FindByTagName(root, findTag)
	default:
		nodes = element.FindByAttributeText(root, findAttr, findValue)
	}

	results := make([]findResult, 0, len(nodes))
	for _, n := range nodes {
		var markup strings.Builder
		if err := element.Fragment(n, 0).Render(cmd.Context(), &markup); err != nil {
			return err
		}

		result := findResult{
			Tag:      n.Tag(),
			ID:       n.ID(),
			Children: len(n.Children()),
			HTML:     markup.String(),
		}
		for _, attr := range n.Attrs() {
			result.Attributes = append(result.Attributes, foundAttr{Key: attr.Key, Value: attr.Value})
		}
		results = append(results, result)
	}

	switch strings.ToLower(findFormat) {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case "yaml":
		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		defer encoder.Close()
		return encoder.Encode(results)
	default:
		return outputFindTable(cmd, results)
	}
}

func outputFindTable(cmd *cobra.Command, results []findResult) error {
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No elements found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tID\tATTRIBUTES\tCHILDREN")
	for _, r := range results {
		attrs := make([]string, 0, len(r.Attributes))
		for _, a := range r.Attributes {
			attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.Tag, r.ID, strings.Join(attrs, " "), r.Children)
	}
	return w.Flush()
}
