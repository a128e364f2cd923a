package main

import (
	"github.com/spf13/cobra"
)

var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Show the indexed record of one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		record, err := eng.FileInfo(args[0])
		if err != nil {
			return err
		}
		return emit(record)
	},
}

func init() {
	rootCmd.AddCommand(fileCmd)
}
