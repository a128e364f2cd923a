package main

import (
	"github.com/spf13/cobra"
)

// statusResult summarizes the on-disk index.
type statusResult struct {
	Projects   int `json:"projects"`
	Files      int `json:"files"`
	Symbols    int `json:"symbols"`
	Edges      int `json:"edges"`
	Routes     int `json:"routes"`
	Calls      int `json:"calls"`
	Unresolved int `json:"unresolved"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the current index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}

		snap, err := eng.Snapshot()
		if err != nil {
			return err
		}
		return emit(statusResult{
			Projects:   len(snap.Graph.Projects),
			Files:      len(snap.Graph.Files),
			Symbols:    len(snap.Graph.Symbols),
			Edges:      len(snap.Graph.Edges),
			Routes:     len(snap.Graph.Routes),
			Calls:      len(snap.Graph.Calls),
			Unresolved: len(snap.Graph.Unresolved),
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
