package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/internal/cfx"
)

var generateCmd = &cobra.Command{
	Use:   "generate <file.def|file.cfx|file.res>",
	Short: "Write the CCL text of a CFX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tools, err := newTools()
		if err != nil {
			return err
		}
		out, err := tools.GenerateCCL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <case.cfx> [file.ccl]",
	Short: "Import CCL text into a CFX case",
	Long: `Plays an import session with cfx5pre that replaces the case setup with
the CCL file (default: the case path with .ccl suffix).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tools, err := newTools()
		if err != nil {
			return err
		}
		text := ""
		if len(args) == 2 {
			text = args[1]
		}
		_, err = tools.ImportCCL(cmd.Context(), args[0], text)
		return err
	},
}

var writeDefCmd = &cobra.Command{
	Use:   "write-def <case.cfx> [file.def]",
	Short: "Write the solver input file of a case",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tools, err := newTools()
		if err != nil {
			return err
		}
		def := ""
		if len(args) == 2 {
			def = args[1]
		}
		out, err := tools.WriteDef(cmd.Context(), args[0], def)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var (
	solveIni        string
	solveWorkDir    string
	solvePartitions int
	solveMaxElapsed time.Duration
	solveWait       bool
	solveWaitFor    string
)

var solveCmd = &cobra.Command{
	Use:   "solve <file.def>",
	Short: "Run cfx5solve",
	Long: `Starts the solver detached, or waits for it with --wait. With --wait-for
the command polls for a file (e.g. the expected .res) until
cfx.wait_timeout passes; the solver is not killed on timeout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tools, err := newTools()
		if err != nil {
			return err
		}
		partitions := solvePartitions
		if partitions == 0 {
			partitions = appConfig.CFX.Partitions
		}

		res, err := tools.Solve(ctx, cfx.SolveOptions{
			Def:        args[0],
			Ini:        solveIni,
			WorkDir:    solveWorkDir,
			Partitions: partitions,
			MaxElapsed: solveMaxElapsed,
			Wait:       solveWait,
			LogFile:    filepath.Join(filepath.Dir(args[0]), "cfdkit-solve.log"),
		})
		if err != nil {
			return err
		}
		if res.PID != 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "solver started (pid %d)\n", res.PID)
		}

		if solveWaitFor != "" {
			ok, err := cfx.WaitForFile(ctx, solveWaitFor, appConfig.CFX.WaitTimeout.Duration, appConfig.CFX.PollInterval.Duration)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s did not appear within %s\n", solveWaitFor, appConfig.CFX.WaitTimeout.Duration)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s written\n", solveWaitFor)
		}
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <run-dir>",
	Short: "Ask a running solver to stop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cfx.RequestStop(args[0])
	},
}

func init() {
	solveCmd.Flags().StringVar(&solveIni, "ini", "", "initial values file")
	solveCmd.Flags().StringVar(&solveWorkDir, "chdir", "", "working directory (default: directory of the .def)")
	solveCmd.Flags().IntVarP(&solvePartitions, "partitions", "p", 0, "local parallel partitions (default: cfx.partitions)")
	solveCmd.Flags().DurationVar(&solveMaxElapsed, "max-elapsed", 0, "maximum wall clock time, e.g. 2h")
	solveCmd.Flags().BoolVar(&solveWait, "wait", false, "wait for the solver to exit")
	solveCmd.Flags().StringVar(&solveWaitFor, "wait-for", "", "poll for this file after starting")

	rootCmd.AddCommand(generateCmd, importCmd, writeDefCmd, solveCmd, stopCmd)
}
