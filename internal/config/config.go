// Package config loads indexer configuration from .flyto-index/config.json
// and the optional flyto.yaml workspace file at the root.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// IndexDirName is the on-disk index directory under the workspace root.
const IndexDirName = ".flyto-index"

// Config represents the complete indexer configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Scan    ScanConfig    `json:"scan" mapstructure:"scan"`
	Impact  ImpactConfig  `json:"impact" mapstructure:"impact"`
	Search  SearchConfig  `json:"search" mapstructure:"search"`
	Session SessionConfig `json:"session" mapstructure:"session"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ScanConfig controls the scan pipeline
type ScanConfig struct {
	MaxFileSizeBytes int      `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	Workers          int      `json:"workers" mapstructure:"workers"` // 0 = NumCPU
	ParseTimeoutMs   int      `json:"parseTimeoutMs" mapstructure:"parseTimeoutMs"`
	IgnoreDirs       []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`
}

// ImpactConfig controls impact queries
type ImpactConfig struct {
	MaxDepth int `json:"maxDepth" mapstructure:"maxDepth"`
}

// SearchConfig controls BM25 search and session boosting
type SearchConfig struct {
	K1         float64 `json:"k1" mapstructure:"k1"`
	B          float64 `json:"b" mapstructure:"b"`
	BoostAlpha float64 `json:"boostAlpha" mapstructure:"boostAlpha"`
	MaxResults int     `json:"maxResults" mapstructure:"maxResults"`
}

// SessionConfig controls the session tracker
type SessionConfig struct {
	BufferSize      int `json:"bufferSize" mapstructure:"bufferSize"`
	FlushIntervalMs int `json:"flushIntervalMs" mapstructure:"flushIntervalMs"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Scan: ScanConfig{
			MaxFileSizeBytes: 1 << 20, // 1 MiB
			Workers:          0,
			ParseTimeoutMs:   10000,
			IgnoreDirs: []string{
				"node_modules", "__pycache__", "dist", "build",
				"venv", ".venv", "vendor", "target", "coverage",
			},
		},
		Impact: ImpactConfig{
			MaxDepth: 2,
		},
		Search: SearchConfig{
			K1:         1.5,
			B:          0.75,
			BoostAlpha: 0.20,
			MaxResults: 20,
		},
		Session: SessionConfig{
			BufferSize:      128,
			FlushIntervalMs: 1000,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load loads configuration from <root>/.flyto-index/config.json, falling back
// to defaults when the file does not exist.
func Load(root string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, IndexDirName))

	cfg := DefaultConfig()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration bounds.
func (c *Config) Validate() error {
	if c.Scan.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("scan.maxFileSizeBytes must be positive")
	}
	if c.Impact.MaxDepth <= 0 {
		return fmt.Errorf("impact.maxDepth must be positive")
	}
	if c.Search.BoostAlpha < 0 || c.Search.BoostAlpha > 1 {
		return fmt.Errorf("search.boostAlpha must be in [0,1]")
	}
	if c.Session.BufferSize <= 0 {
		return fmt.Errorf("session.bufferSize must be positive")
	}
	return nil
}

// WorkspaceProject is one project entry in flyto.yaml.
type WorkspaceProject struct {
	Name      string   `yaml:"name"`
	Root      string   `yaml:"root"`
	Languages []string `yaml:"languages,omitempty"`
}

// Workspace is the optional multi-project layout declared in flyto.yaml.
// When absent, the workspace is a single project named after the root dir.
type Workspace struct {
	Projects []WorkspaceProject `yaml:"projects"`
}

// LoadWorkspace reads <root>/flyto.yaml. A missing file yields the implicit
// single-project workspace.
func LoadWorkspace(root string) (*Workspace, error) {
	data, err := os.ReadFile(filepath.Join(root, "flyto.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Workspace{Projects: []WorkspaceProject{{
				Name: filepath.Base(root),
				Root: ".",
			}}}, nil
		}
		return nil, fmt.Errorf("failed to read flyto.yaml: %w", err)
	}

	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("failed to parse flyto.yaml: %w", err)
	}
	if len(ws.Projects) == 0 {
		ws.Projects = []WorkspaceProject{{Name: filepath.Base(root), Root: "."}}
	}
	for i := range ws.Projects {
		if ws.Projects[i].Name == "" {
			return nil, fmt.Errorf("flyto.yaml: project %d has no name", i)
		}
		if ws.Projects[i].Root == "" {
			ws.Projects[i].Root = "."
		}
	}
	return &ws, nil
}
