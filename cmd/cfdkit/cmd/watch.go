package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/internal/cfx"
	"github.com/msto63/cfdkit/pkg/core/logging"
)

var watchCmd = &cobra.Command{
	Use:   "watch <case.cfx|file.ccl>...",
	Short: "Rebuild stores when their case files change",
	Long: `Watches case files and rebuilds the paired store after every change.
Runs until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.New("watch")

		w, err := cfx.NewWatcher(cfx.WatcherConfig{
			Files:  args,
			Logger: log,
			OnChange: func(ctx context.Context, path string) error {
				f, err := openFile(ctx, path)
				if err != nil {
					return err
				}
				log.Info("Store rebuilt", "store", f.Path())
				return f.Close()
			},
		})
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "watching %d file(s), press Ctrl+C to stop\n", len(args))

		<-ctx.Done()
		w.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
