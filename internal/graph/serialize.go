package graph

import (
	"encoding/json"
	"fmt"

	"github.com/flytohub/flyto-indexer/internal/model"
	"github.com/flytohub/flyto-indexer/internal/version"
)

// IndexFile is the on-disk shape of index.json. Unknown top-level keys are
// ignored on load; missing keys default to empty collections.
type IndexFile struct {
	Projects   []model.Project                         `json:"projects"`
	Symbols    map[model.SymbolID]*model.SymbolRecord  `json:"symbols"`
	Files      map[string]*model.FileRecord            `json:"files"`
	Edges      []model.Edge                            `json:"edges"`
	Reverse    map[model.SymbolID][]model.SymbolID     `json:"reverse"`
	Unresolved map[string][]model.SymbolID             `json:"unresolved"`
	APIs       []model.RouteDecl                       `json:"apis"`
	Calls      []model.CallSite                        `json:"calls"`
	Version    string                                  `json:"version"`
}

// Marshal renders the graph as deterministic index.json bytes: map keys sort
// lexicographically under encoding/json, and normalize fixed the slice
// orders, so an unchanged workspace serializes byte-identically.
func (g *Graph) Marshal() ([]byte, error) {
	out := IndexFile{
		Projects:   g.Projects,
		Symbols:    g.Symbols,
		Files:      g.Files,
		Edges:      g.Edges,
		Reverse:    g.Reverse,
		Unresolved: g.Unresolved,
		APIs:       g.Routes,
		Calls:      g.Calls,
		Version:    version.Version,
	}
	if out.Projects == nil {
		out.Projects = []model.Project{}
	}
	if out.Edges == nil {
		out.Edges = []model.Edge{}
	}
	if out.APIs == nil {
		out.APIs = []model.RouteDecl{}
	}
	if out.Calls == nil {
		out.Calls = []model.CallSite{}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal index: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal loads a graph from index.json bytes.
func Unmarshal(data []byte) (*Graph, error) {
	var in IndexFile
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}

	g := New()
	g.Projects = in.Projects
	if in.Symbols != nil {
		g.Symbols = in.Symbols
	}
	if in.Files != nil {
		g.Files = in.Files
	}
	g.Edges = in.Edges
	if in.Reverse != nil {
		g.Reverse = in.Reverse
	}
	if in.Unresolved != nil {
		g.Unresolved = in.Unresolved
	}
	g.Routes = in.APIs
	g.Calls = in.Calls
	return g, nil
}
