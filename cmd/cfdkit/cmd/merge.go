package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/internal/ccl"
	"github.com/msto63/cfdkit/internal/cclstore"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
	"github.com/msto63/cfdkit/foundation/utils/filex"
)

var (
	mergeParent    string
	mergeOverwrite bool
	mergeSkip      bool
	mergeBackup    bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <store> <file.ccl>",
	Short: "Write the groups of a CCL file into an existing store",
	Long: `Materializes every top-level group of a CCL file below --parent (default:
the root). An existing group of the same name aborts the merge unless
--overwrite replaces it or --skip (or ccl.conflict = "skip") keeps it.
The merge is one transaction: on error nothing is written.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if mergeBackup {
			storePath := args[0]
			if !filex.HasSuffix(storePath, appConfig.CCL.StoreSuffix) {
				storePath = filex.ChangeSuffix(storePath, appConfig.CCL.StoreSuffix)
			}
			if filex.IsFile(storePath) {
				backup, err := filex.Backup(storePath)
				if err != nil {
					return cfderror.Wrap(err, "failed to back up store").WithCode(cfderror.CodeDatabaseError)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "backup: %s\n", backup)
			}
		}

		f, err := openFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		doc, err := ccl.ParseFile(args[1], ccl.BuildOptions{Step: appConfig.CCL.IndentStep, Strict: appConfig.CCL.Strict})
		if err != nil {
			return err
		}

		policy := conflictPolicy()
		if mergeSkip {
			policy = cclstore.ConflictSkip
		}
		res, err := f.Store().Materialize(ctx, doc.Root, cclstore.MaterializeOptions{
			Parent:    mergeParent,
			AsRoot:    true,
			Overwrite: mergeOverwrite,
			Conflict:  policy,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d nodes, %d attributes written, %d replaced\n", res.Nodes, res.Attributes, res.Replaced)
		for _, s := range res.Skipped {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s /%s\n", keyStyle.Render("skipped"), s)
		}
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeParent, "parent", "", "path of the group receiving the merged groups")
	mergeCmd.Flags().BoolVar(&mergeOverwrite, "overwrite", false, "replace existing groups")
	mergeCmd.Flags().BoolVar(&mergeSkip, "skip", false, "keep existing groups")
	mergeCmd.Flags().BoolVar(&mergeBackup, "backup", false, "copy the store aside before merging")
	rootCmd.AddCommand(mergeCmd)
}
