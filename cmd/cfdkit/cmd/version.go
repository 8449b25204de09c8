package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/pkg/core/version"
)

var (
	GitCommit = "development"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cfdkit v%s\n", version.Platform)
		fmt.Printf("  ccl:          %s\n", version.CCL)
		fmt.Printf("  cclstore:     %s (format %d)\n", version.CCLStore, version.StoreFormat)
		fmt.Printf("  cclnav:       %s\n", version.CCLNav)
		fmt.Printf("  cfx:          %s\n", version.CFX)
		fmt.Printf("  Git Commit:   %s\n", GitCommit)
		fmt.Printf("  Build Date:   %s\n", BuildDate)
		fmt.Printf("  Go Version:   %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:      %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
