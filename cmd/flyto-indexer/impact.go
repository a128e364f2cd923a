package main

import (
	"github.com/spf13/cobra"
)

var impactDepth int

var impactCmd = &cobra.Command{
	Use:   "impact <symbol-id>",
	Short: "Show the reverse-dependency closure of a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		result, err := eng.Impact(args[0], impactDepth)
		if err != nil {
			return err
		}
		return emit(result)
	},
}

func init() {
	impactCmd.Flags().IntVar(&impactDepth, "depth", 0, "closure depth (default from config)")
	rootCmd.AddCommand(impactCmd)
}
