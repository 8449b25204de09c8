package cmd

import (
	"github.com/spf13/cobra"
)

var (
	setCreate bool
	setDelete bool
)

var setCmd = &cobra.Command{
	Use:   "set <file> <path> <key> [value]",
	Short: "Change an attribute of a group",
	Long: `Updates an existing attribute. The new value must have the shape of the
old one (number, quantity, vector or text) unless the old value is empty.
Use --create to add a new attribute and --delete to remove one.`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := openFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		g, err := f.Get(ctx, args[1])
		if err != nil {
			return err
		}
		attrs := g.Attributes()
		key := args[2]

		if setDelete {
			return attrs.Delete(ctx, key)
		}
		if len(args) < 4 {
			return cobra.ExactArgs(4)(cmd, args)
		}
		if setCreate {
			return attrs.Add(ctx, key, args[3])
		}
		return attrs.Set(ctx, key, args[3])
	},
}

func init() {
	setCmd.Flags().BoolVar(&setCreate, "create", false, "add a new attribute")
	setCmd.Flags().BoolVar(&setDelete, "delete", false, "remove the attribute")
	rootCmd.AddCommand(setCmd)
}
