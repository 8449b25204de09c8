package cmd

import (
	"github.com/spf13/cobra"
)

var regenOut string

var regenCmd = &cobra.Command{
	Use:   "regen <file>",
	Short: "Regenerate CCL text from a store",
	Long: `Writes the whole store as canonical CCL text, to stdout or with --out
to a file (written to a temporary file and renamed into place).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := openFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if regenOut != "" {
			return f.WriteText(ctx, regenOut)
		}
		return f.Regenerate(ctx, cmd.OutOrStdout())
	},
}

func init() {
	regenCmd.Flags().StringVarP(&regenOut, "out", "o", "", "output .ccl file")
	rootCmd.AddCommand(regenCmd)
}
