package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/internal/cclnav"
)

var (
	treeDepth int
	treeAttrs bool
)

var treeCmd = &cobra.Command{
	Use:   "tree <file> [path]",
	Short: "Show the group hierarchy",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := openFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		start := f.Root()
		if len(args) == 2 {
			if start, err = f.Get(ctx, args[1]); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(start.String()))
		return printTree(ctx, cmd.OutOrStdout(), start, "", 1)
	},
}

func init() {
	treeCmd.Flags().IntVarP(&treeDepth, "depth", "d", 0, "maximum depth (0 = unlimited)")
	treeCmd.Flags().BoolVarP(&treeAttrs, "attributes", "a", false, "list attributes")
	rootCmd.AddCommand(treeCmd)
}

func printTree(ctx context.Context, w io.Writer, g cclnav.Group, prefix string, depth int) error {
	if treeDepth > 0 && depth > treeDepth {
		return nil
	}
	children, err := g.Children(ctx)
	if err != nil {
		return err
	}

	if treeAttrs {
		attrs, err := g.Attributes().All(ctx)
		if err != nil {
			return err
		}
		bar := "│   "
		if len(children) == 0 {
			bar = "    "
		}
		for _, a := range attrs {
			fmt.Fprintf(w, "%s%s%s = %s\n", prefix, bar, keyStyle.Render(a.Key), a.Value)
		}
	}

	for i, c := range children {
		branch, next := "├── ", "│   "
		if i == len(children)-1 {
			branch, next = "└── ", "    "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, branch, groupLabel(c))
		if err := printTree(ctx, w, c, prefix+next, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func groupLabel(g cclnav.Group) string {
	if typ := g.Type(); typ != "" {
		return typeStyle.Render(typ+":") + " " + groupStyle.Render(strings.TrimSpace(g.Label()))
	}
	return groupStyle.Render(g.Name())
}
