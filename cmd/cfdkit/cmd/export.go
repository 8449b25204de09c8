package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/msto63/cfdkit/internal/ccl"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <file> [path]",
	Short: "Export a group as YAML or JSON",
	Long: `Exports a group and its subtree. Attributes become string values and
child groups nested mappings. YAML output keeps the store order.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := openFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		g := f.Root()
		if len(args) == 2 {
			if g, err = f.Get(ctx, args[1]); err != nil {
				return err
			}
		}
		tree, err := g.Load(ctx)
		if err != nil {
			return err
		}
		return writeExport(cmd.OutOrStdout(), tree, exportFormat)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "output format: yaml or json")
	rootCmd.AddCommand(exportCmd)
}

func writeExport(w io.Writer, tree *ccl.Group, format string) error {
	switch format {
	case "yaml", "yml":
		doc := &yaml.Node{Kind: yaml.MappingNode}
		if tree.IsRoot() {
			doc = yamlNode(tree)
		} else {
			doc.Content = append(doc.Content, scalar(tree.Name), yamlNode(tree))
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return cfderror.Wrap(err, "failed to encode YAML").WithCode(cfderror.CodeInternal)
		}
		return enc.Close()

	case "json":
		var v interface{} = jsonValue(tree)
		if !tree.IsRoot() {
			v = map[string]interface{}{tree.Name: v}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return cfderror.Wrap(err, "failed to encode JSON").WithCode(cfderror.CodeInternal)
		}
		return nil
	}
	return cfderror.Newf(cfderror.CodeInvalidInput, "unknown export format %q (want yaml or json)", format)
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// yamlNode maps a group to an ordered mapping: attributes first, then
// child groups
func yamlNode(g *ccl.Group) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, a := range g.Attributes {
		n.Content = append(n.Content, scalar(a.Key), scalar(a.Value))
	}
	for _, c := range g.Children {
		n.Content = append(n.Content, scalar(c.Name), yamlNode(c))
	}
	return n
}

func jsonValue(g *ccl.Group) map[string]interface{} {
	m := make(map[string]interface{}, len(g.Attributes)+len(g.Children))
	for _, a := range g.Attributes {
		m[a.Key] = a.Value
	}
	for _, c := range g.Children {
		if _, taken := m[c.Name]; taken {
			m[fmt.Sprintf("%s (group)", c.Name)] = jsonValue(c)
			continue
		}
		m[c.Name] = jsonValue(c)
	}
	return m
}
