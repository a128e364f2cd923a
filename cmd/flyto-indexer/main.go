package main

import (
	"fmt"
	"os"

	"github.com/flytohub/flyto-indexer/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errors.ExitCode(err))
	}
	os.Exit(exitCode)
}
