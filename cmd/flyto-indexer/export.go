package main

import (
	"github.com/spf13/cobra"

	"github.com/flytohub/flyto-indexer/internal/store"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Archive the index directory to a .tar.zst snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		dest := exportOut
		if dest == "" {
			dest = "flyto-index.tar.zst"
		}
		if err := store.Archive(eng.IndexDir(), dest); err != nil {
			return err
		}
		return emit(map[string]string{"archive": dest})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "archive destination (default flyto-index.tar.zst)")
	rootCmd.AddCommand(exportCmd)
}
