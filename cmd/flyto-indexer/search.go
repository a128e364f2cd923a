package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var searchMax int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank symbols against a free-text query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		tracker := eng.NewSessionTracker()
		hits, err := eng.Search(strings.Join(args, " "), searchMax, tracker)
		if err != nil {
			return err
		}
		if err := tracker.Flush(eng.IndexDir(), true); err != nil {
			return err
		}
		return emit(hits)
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchMax, "max", 0, "maximum results (default from config)")
	rootCmd.AddCommand(searchCmd)
}
