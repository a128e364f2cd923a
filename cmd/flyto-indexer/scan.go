package main

import (
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the workspace and update the index incrementally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		summary, err := eng.Scan(cmd.Context())
		if err != nil {
			return err
		}
		if summary.ParseErrors > 0 {
			exitCode = 3
		}
		return emit(summary)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
