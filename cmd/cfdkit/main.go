package main

import (
	"fmt"
	"os"

	"github.com/msto63/cfdkit/cmd/cfdkit/cmd"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cfderror.GetCode(err).ExitCode())
	}
}
