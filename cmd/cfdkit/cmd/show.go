package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <file> [path]",
	Short: "Print a group as CCL text",
	Long: `Prints the group at a "/"-separated path, e.g.

  cfdkit show case.ccldb "FLOW: Flow Analysis 1/SOLVER CONTROL"

Without a path the whole store is printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := openFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if len(args) == 1 {
			return f.Regenerate(ctx, cmd.OutOrStdout())
		}
		g, err := f.Get(ctx, args[1])
		if err != nil {
			return err
		}
		text, err := g.Text(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
