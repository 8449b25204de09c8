package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/internal/cclnav"
	"github.com/msto63/cfdkit/internal/cclstore"
	"github.com/msto63/cfdkit/internal/cfx"
	"github.com/msto63/cfdkit/pkg/core/config"
	"github.com/msto63/cfdkit/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool

	appConfig = config.Default()
	logFile   io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "cfdkit",
	Short: "cfdkit - CFX case automation toolkit",
	Long: `cfdkit reads, edits and regenerates ANSYS CFX Command Language (CCL)
and drives the CFX command line tools.

CCL text (.ccl) is parsed into a hierarchical store (.ccldb) that can be
navigated and edited. Solver files (.def), case files (.cfx) and result
files (.res) are converted to CCL through cfx5cmds and cfx5pre.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

// Execute runs the root command; SIGINT and SIGTERM cancel its context
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $"+config.EnvConfigPath+" or ./cfdkit.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setup loads the configuration and configures logging for all commands
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg

	logCfg := logging.DefaultLoggerConfig("cfdkit")
	logCfg.Level = cfg.General.LogLevel
	logCfg.Format = cfg.General.LogFormat
	logCfg.Output = os.Stderr
	if verbose {
		logCfg.Level = "debug"
	}
	if cfg.General.LogFile != "" {
		fd, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = fd
		logCfg.AdditionalOutputs = []io.Writer{fd}
	}
	logging.Configure(logCfg)
	return nil
}

// newTools returns the CFX tools for the configured installation
func newTools() (*cfx.Tools, error) {
	inst, err := cfx.FromConfig(appConfig.CFX)
	if err != nil {
		return nil, err
	}
	return cfx.NewTools(inst, cfx.ToolsOptions{
		Logger:     logging.New("cfx"),
		SessionDir: appConfig.CFX.SessionDir,
	}), nil
}

// navOptions builds the open options from the configuration. The CFX
// generator is attached when an installation is configured.
func navOptions() cclnav.Options {
	opts := cclnav.Options{
		Step:        appConfig.CCL.IndentStep,
		StoreSuffix: appConfig.CCL.StoreSuffix,
		Strict:      appConfig.CCL.Strict,
		Logger:      logging.New("cclnav"),
	}
	if tools, err := newTools(); err == nil {
		opts.Generator = tools
	}
	return opts
}

func openFile(ctx context.Context, path string) (*cclnav.File, error) {
	return cclnav.Open(ctx, path, navOptions())
}

func conflictPolicy() cclstore.ConflictPolicy {
	p, err := cclstore.ParseConflictPolicy(appConfig.CCL.Conflict)
	if err != nil {
		return cclstore.ConflictFail
	}
	return p
}
