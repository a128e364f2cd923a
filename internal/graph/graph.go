// Package graph assembles parser output into the symbol graph: forward
// dependency edges, the reverse index that makes impact analysis O(degree),
// and the unresolved-name bucket.
package graph

import (
	"fmt"
	"sort"

	"github.com/flytohub/flyto-indexer/internal/errors"
	"github.com/flytohub/flyto-indexer/internal/model"
)

// Graph is the in-memory symbol graph. It is built by a single reducer and
// treated as immutable by queries; scans replace it wholesale.
type Graph struct {
	Projects   []model.Project
	Symbols    map[model.SymbolID]*model.SymbolRecord
	Files      map[string]*model.FileRecord
	Edges      []model.Edge
	Reverse    map[model.SymbolID][]model.SymbolID
	Unresolved map[string][]model.SymbolID
	Routes     []model.RouteDecl
	Calls      []model.CallSite

	// pathOrder caches the sorted file list for the duration of a Resolve.
	pathOrder []string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Symbols:    map[model.SymbolID]*model.SymbolRecord{},
		Files:      map[string]*model.FileRecord{},
		Reverse:    map[model.SymbolID][]model.SymbolID{},
		Unresolved: map[string][]model.SymbolID{},
	}
}

// ApplyFile installs the records of one parsed file, replacing anything the
// path previously defined. Symbol insertion order follows the file's record.
func (g *Graph) ApplyFile(file *model.FileRecord, symbols []*model.SymbolRecord) {
	g.RemoveFile(file.Path)
	g.Files[file.Path] = file
	for _, sym := range symbols {
		g.Symbols[sym.ID] = sym
	}
	g.Routes = append(g.Routes, file.Routes...)
	g.Calls = append(g.Calls, file.Calls...)
}

// RemoveFile drops a file, every symbol it defined, and the route and call
// records it contributed. Edges are re-derived by Resolve afterwards, so
// inbound references to the removed symbols demote to unresolved names
// rather than dangling.
func (g *Graph) RemoveFile(path string) {
	prev, ok := g.Files[path]
	if !ok {
		return
	}
	for _, id := range prev.Symbols {
		delete(g.Symbols, id)
	}
	delete(g.Files, path)

	routes := g.Routes[:0]
	for _, r := range g.Routes {
		if r.HandlerID.Path() != path {
			routes = append(routes, r)
		}
	}
	g.Routes = routes

	calls := g.Calls[:0]
	for _, c := range g.Calls {
		if c.File != path {
			calls = append(calls, c)
		}
	}
	g.Calls = calls
}

// sortedFilePaths returns the workspace files in lexicographic order, which
// fixes the edge emission order regardless of parse scheduling.
func (g *Graph) sortedFilePaths() []string {
	paths := make([]string, 0, len(g.Files))
	for p := range g.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// appendEdge records a forward edge and its reverse entry together; both are
// written or neither is.
func (g *Graph) appendEdge(e model.Edge) {
	g.Edges = append(g.Edges, e)
	g.Reverse[e.To] = append(g.Reverse[e.To], e.From)
}

// AddEdges installs externally derived edges (the API resolver's routes_to
// edges) whose endpoints are known symbols, keeping the reverse index in
// step, then restores deterministic order.
func (g *Graph) AddEdges(edges []model.Edge) {
	existing := make(map[model.Edge]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		existing[e] = struct{}{}
	}
	for _, e := range edges {
		if _, ok := g.Symbols[e.From]; !ok {
			continue
		}
		if _, ok := g.Symbols[e.To]; !ok {
			continue
		}
		if _, dup := existing[e]; dup {
			continue
		}
		existing[e] = struct{}{}
		g.appendEdge(e)
	}
	g.normalize()
}

// normalize sorts edges, reverse lists, and unresolved candidates so that
// serialization is deterministic.
func (g *Graph) normalize() {
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
	for id, sources := range g.Reverse {
		sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
		g.Reverse[id] = dedupIDs(sources)
	}
	for name, candidates := range g.Unresolved {
		sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
		g.Unresolved[name] = dedupIDs(candidates)
	}
	sort.Slice(g.Routes, func(i, j int) bool {
		a, b := g.Routes[i], g.Routes[j]
		if a.PathPattern != b.PathPattern {
			return a.PathPattern < b.PathPattern
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.HandlerID < b.HandlerID
	})
	sort.Slice(g.Calls, func(i, j int) bool {
		a, b := g.Calls[i], g.Calls[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.URLLiteral < b.URLLiteral
	})
}

func dedupIDs(ids []model.SymbolID) []model.SymbolID {
	out := ids[:0]
	var prev model.SymbolID
	for i, id := range ids {
		if i > 0 && id == prev {
			continue
		}
		out = append(out, id)
		prev = id
	}
	return out
}

// Verify checks the graph invariants: every edge endpoint resolves to a
// known symbol, and forward edges agree with the reverse index in both
// directions. Violations are never silently repaired.
func (g *Graph) Verify() error {
	type pair struct {
		from, to model.SymbolID
	}
	forward := make(map[pair]struct{}, len(g.Edges))

	for _, e := range g.Edges {
		if _, ok := g.Symbols[e.From]; !ok {
			return errors.New(errors.InvariantViolation,
				fmt.Sprintf("edge source %s is not a known symbol", e.From))
		}
		if _, ok := g.Symbols[e.To]; !ok {
			return errors.New(errors.InvariantViolation,
				fmt.Sprintf("edge target %s is not a known symbol", e.To))
		}
		forward[pair{e.From, e.To}] = struct{}{}

		found := false
		for _, src := range g.Reverse[e.To] {
			if src == e.From {
				found = true
				break
			}
		}
		if !found {
			return errors.New(errors.InvariantViolation,
				fmt.Sprintf("edge %s -> %s missing from reverse index", e.From, e.To))
		}
	}

	for to, sources := range g.Reverse {
		for _, from := range sources {
			if _, ok := forward[pair{from, to}]; !ok {
				return errors.New(errors.InvariantViolation,
					fmt.Sprintf("reverse entry %s <- %s has no forward edge", to, from))
			}
		}
	}

	for name, candidates := range g.Unresolved {
		for _, id := range candidates {
			if _, ok := g.Symbols[id]; !ok {
				return errors.New(errors.InvariantViolation,
					fmt.Sprintf("unresolved candidate %s for %q is not a known symbol", id, name))
			}
		}
	}

	return nil
}
