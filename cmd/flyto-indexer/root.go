package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flytohub/flyto-indexer/internal/config"
	"github.com/flytohub/flyto-indexer/internal/engine"
	"github.com/flytohub/flyto-indexer/internal/errors"
	"github.com/flytohub/flyto-indexer/internal/logging"
	"github.com/flytohub/flyto-indexer/internal/version"
)

var (
	// rootFlag is the workspace root; defaults to the working directory.
	rootFlag string
	// jsonFlag switches command output to JSON.
	jsonFlag bool

	// exitCode carries the non-error exit status (partial parse) to main.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "flyto-indexer",
	Short: "Local code intelligence engine",
	Long: `flyto-indexer ingests a multi-language source tree, maintains an
incrementally-updatable symbol graph under .flyto-index/, and answers
impact, reference, search, and cross-language API queries.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("flyto-indexer version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "workspace root directory")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "emit JSON output")
}

// newEngine wires config, workspace layout, and logger for one invocation.
func newEngine() (*engine.Engine, error) {
	cfg, err := config.Load(rootFlag)
	if err != nil {
		return nil, errors.Wrap(errors.IOError, "loading config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.UsageError, "invalid config", err)
	}
	ws, err := config.LoadWorkspace(rootFlag)
	if err != nil {
		return nil, errors.Wrap(errors.UsageError, "loading workspace", err)
	}

	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.LogLevel(cfg.Logging.Level),
	})

	return engine.New(rootFlag, cfg, ws, logger), nil
}

// emit prints a result as JSON or indented JSON depending on --json; human
// rendering falls back to JSON too since every result is a structured value.
func emit(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	if !jsonFlag {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
