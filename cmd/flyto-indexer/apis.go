package main

import (
	"github.com/spf13/cobra"
)

var apisCmd = &cobra.Command{
	Use:   "apis",
	Short: "List route declarations with their joined callers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		joined, err := eng.APIs()
		if err != nil {
			return err
		}
		return emit(joined)
	},
}

func init() {
	rootCmd.AddCommand(apisCmd)
}
