package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/internal/cclnav"
)

var monitorFrame string

var monitorCmd = &cobra.Command{
	Use:   "monitor <file> [name expression]",
	Short: "List or add monitor points",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return cobra.ExactArgs(3)(cmd, args)
		}
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
		if len(args) == 3 {
			if err := flow.AddMonitorPoint(ctx, cclnav.MonitorPoint{
				Name:       args[1],
				Expression: args[2],
				CoordFrame: monitorFrame,
			}); err != nil {
				return err
			}
		}

		points, err := flow.MonitorPoints(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, len(points))
		for i, p := range points {
			rows[i] = []string{p.Name, p.Expression, p.CoordFrame}
		}
		fmt.Fprintln(cmd.OutOrStdout(), table([]string{"NAME", "EXPRESSION", "FRAME"}, rows))
		return nil
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorFrame, "frame", cclnav.DefaultCoordFrame, "coordinate frame of a new point")
	rootCmd.AddCommand(monitorCmd)
}
