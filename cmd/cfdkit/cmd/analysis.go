package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/internal/ccl"
	"github.com/msto63/cfdkit/internal/cclnav"
)

var (
	setIterations int
	setTimestep   string
	setTotalTime  string
)

var analysisCmd = &cobra.Command{
	Use:   "analysis <file>",
	Short: "Show or change the analysis settings of the flow",
	Long: `Shows the analysis type and its solver settings. Steady state flows have
an iteration limit; transient flows have a time step, a total time and a
coefficient loop limit. Setting a value the analysis type does not have is
an error.`,
	Args: cobra.ExactArgs(1),
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

		if cmd.Flags().Changed("max-iterations") {
			if err := flow.SetMaxIterations(ctx, setIterations); err != nil {
				return err
			}
		}
		if setTimestep != "" {
			q, err := cclnav.ParseQuantity(setTimestep)
			if err != nil {
				return err
			}
			if err := flow.SetTimestep(ctx, q); err != nil {
				return err
			}
		}
		if setTotalTime != "" {
			q, err := cclnav.ParseQuantity(setTotalTime)
			if err != nil {
				return err
			}
			if err := flow.SetTotalTime(ctx, q); err != nil {
				return err
			}
		}
		return printAnalysis(cmd.OutOrStdout(), cmd, flow)
	},
}

func init() {
	analysisCmd.Flags().IntVar(&setIterations, "max-iterations", 0, "set the iteration limit (steady state)")
	analysisCmd.Flags().StringVar(&setTimestep, "timestep", "", `set the time step, e.g. "0.01 [s]" (transient)`)
	analysisCmd.Flags().StringVar(&setTotalTime, "total-time", "", `set the total time, e.g. "10 [s]" (transient)`)
	rootCmd.AddCommand(analysisCmd)
}

func printAnalysis(w io.Writer, cmd *cobra.Command, flow cclnav.Flow) error {
	ctx := cmd.Context()
	at, err := flow.AnalysisType(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(flow.Label()), typeStyle.Render(at.String()))

	line := func(label string, value interface{}, err error) {
		if err != nil {
			fmt.Fprintf(w, "  %s %s\n", keyStyle.Render(label), errorStyle.Render(err.Error()))
			return
		}
		fmt.Fprintf(w, "  %s %v\n", keyStyle.Render(label), value)
	}

	switch at {
	case ccl.AnalysisSteadyState:
		n, err := flow.MaxIterations(ctx)
		line("max iterations:", n, err)
	case ccl.AnalysisTransient:
		ts, err := flow.Timestep(ctx)
		line("timestep:      ", ts, err)
		total, err := flow.TotalTime(ctx)
		line("total time:    ", total, err)
		loops, err := flow.MaxCoefficientLoops(ctx)
		line("coeff. loops:  ", loops, err)
	}

	domains, err := flow.Domains(ctx)
	if err != nil {
		return err
	}
	for _, d := range domains {
		rotating, _ := d.IsRotating(ctx)
		motion := "stationary"
		if rotating {
			motion = "rotating"
		}
		fmt.Fprintf(w, "  %s %s (%s)\n", keyStyle.Render("domain:"), d.Name(), motion)
	}

	points, err := flow.MonitorPoints(ctx)
	if err != nil {
		return err
	}
	for _, p := range points {
		fmt.Fprintf(w, "  %s %s = %s\n", keyStyle.Render("monitor:"), p.Name, p.Expression)
	}
	return nil
}
