package main

import (
	"github.com/spf13/cobra"
)

var refsCmd = &cobra.Command{
	Use:   "refs <symbol-id>",
	Short: "List every reference to a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		refs, err := eng.References(args[0])
		if err != nil {
			return err
		}
		return emit(refs)
	},
}

func init() {
	rootCmd.AddCommand(refsCmd)
}
