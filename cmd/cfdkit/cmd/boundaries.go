package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/internal/cclnav"
)

var (
	boundaryType   string
	boundaryDomain  string
)

var boundariesCmd = &cobra.Command{
	Use:   "boundaries <file>",
	Short: "List the boundaries of the flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := openFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		flow, err := f.Flow(ctx)
		if err != nil {
			return err
		}

		var list []cclnav.Boundary
		switch {
		case boundaryDomain != "":
			d, err := flow.Domain(ctx, boundaryDomain)
			if err != nil {
				return err
			}
			if boundaryType != "" {
				sel, err := d.BoundariesOfType(ctx, boundaryType, false)
				if err != nil {
					return err
				}
				list = sel.List()
			} else if list, err = d.Boundaries(ctx); err != nil {
				return err
			}
		case boundaryType != "":
			sel, err := flow.BoundariesOfType(ctx, boundaryType, false)
			if err != nil {
				return err
			}
			list = sel.List()
		default:
			if list, err = flow.Boundaries(ctx); err != nil {
				return err
			}
		}

		rows := make([][]string, 0, len(list))
		for _, b := range list {
			typ, _ := b.Type(ctx)
			loc, _ := b.Location(ctx)
			rows = append(rows, []string{b.Domain().Name(), b.Name(), typ, loc})
		}
		fmt.Fprintln(cmd.OutOrStdout(), table([]string{"DOMAIN", "BOUNDARY", "TYPE", "LOCATION"}, rows))
		return nil
	},
}

func init() {
	boundariesCmd.Flags().StringVarP(&boundaryType, "type", "t", "", "filter by boundary type (INLET, OUTLET, WALL, ...)")
	boundariesCmd.Flags().StringVar(&boundaryDomain, "domain", "", "only boundaries of this domain")
	rootCmd.AddCommand(boundariesCmd)
}
