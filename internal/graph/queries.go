package graph

import (
	"fmt"
	"sort"

	"github.com/flytohub/flyto-indexer/internal/errors"
	"github.com/flytohub/flyto-indexer/internal/model"
)

// ImpactNode is one symbol reached by the reverse closure.
type ImpactNode struct {
	ID         model.SymbolID   `json:"id"`
	Depth      int              `json:"depth"`
	Confidence model.Confidence `json:"confidence"`
}

// ImpactResult is the reverse closure of a symbol up to a bounded depth,
// grouped by project.
type ImpactResult struct {
	Symbol    model.SymbolID          `json:"symbol"`
	MaxDepth  int                     `json:"maxDepth"`
	ByProject map[string][]ImpactNode `json:"byProject"`
	Total     int                     `json:"total"`
}

// Impact walks the reverse index breadth-first up to maxDepth. Each node is
// reported at its shortest distance with the confidence of the weakest edge
// along that shortest path.
func (g *Graph) Impact(id model.SymbolID, maxDepth int) (*ImpactResult, error) {
	if _, _, _, _, err := id.Parse(); err != nil {
		return nil, errors.Wrap(errors.MalformedSymbolID, "impact query", err)
	}
	if _, ok := g.Symbols[id]; !ok {
		return nil, errors.New(errors.SymbolNotFound, fmt.Sprintf("unknown symbol %s", id))
	}
	if maxDepth <= 0 {
		maxDepth = 2
	}

	confidenceOf := g.edgeConfidenceIndex()

	visited := map[model.SymbolID]struct{}{id: {}}
	type queued struct {
		id         model.SymbolID
		depth      int
		confidence model.Confidence
	}
	frontier := []queued{{id: id, depth: 0, confidence: model.ConfidenceExact}}

	result := &ImpactResult{Symbol: id, MaxDepth: maxDepth, ByProject: map[string][]ImpactNode{}}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		if current.depth == maxDepth {
			continue
		}
		for _, src := range g.Reverse[current.id] {
			if _, seen := visited[src]; seen {
				continue
			}
			visited[src] = struct{}{}

			conf := confidenceOf[edgeKey{from: src, to: current.id}]
			if conf == "" {
				conf = model.ConfidenceHeuristic
			}
			// Path confidence is its weakest link
			if current.depth > 0 && conf.Stronger(current.confidence) {
				conf = current.confidence
			}

			node := ImpactNode{ID: src, Depth: current.depth + 1, Confidence: conf}
			project := src.Project()
			result.ByProject[project] = append(result.ByProject[project], node)
			result.Total++

			frontier = append(frontier, queued{id: src, depth: current.depth + 1, confidence: conf})
		}
	}

	for project := range result.ByProject {
		nodes := result.ByProject[project]
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].Depth != nodes[j].Depth {
				return nodes[i].Depth < nodes[j].Depth
			}
			return nodes[i].ID < nodes[j].ID
		})
		result.ByProject[project] = nodes
	}

	return result, nil
}

// edgeConfidenceIndex maps (from, to) to the strongest confidence among the
// edges connecting the pair.
func (g *Graph) edgeConfidenceIndex() map[edgeKey]model.Confidence {
	idx := make(map[edgeKey]model.Confidence, len(g.Edges))
	for _, e := range g.Edges {
		k := edgeKey{from: e.From, to: e.To}
		if prev, ok := idx[k]; !ok || e.Confidence.Stronger(prev) {
			idx[k] = e.Confidence
		}
	}
	return idx
}

// Reference is one inbound reference to a symbol.
type Reference struct {
	File             string           `json:"file"`
	Line             int              `json:"line"`
	ContainingSymbol model.SymbolID   `json:"containingSymbol"`
	Confidence       model.Confidence `json:"confidence"`
}

// References returns every reverse edge of a symbol with the location of the
// referencing symbol.
func (g *Graph) References(id model.SymbolID) ([]Reference, error) {
	if _, _, _, _, err := id.Parse(); err != nil {
		return nil, errors.Wrap(errors.MalformedSymbolID, "references query", err)
	}
	if _, ok := g.Symbols[id]; !ok {
		return nil, errors.New(errors.SymbolNotFound, fmt.Sprintf("unknown symbol %s", id))
	}

	confidenceOf := g.edgeConfidenceIndex()

	refs := make([]Reference, 0, len(g.Reverse[id]))
	for _, src := range g.Reverse[id] {
		ref := Reference{
			ContainingSymbol: src,
			Confidence:       confidenceOf[edgeKey{from: src, to: id}],
			File:             src.Path(),
		}
		if sym, ok := g.Symbols[src]; ok {
			ref.Line = sym.Span.StartLine
		}
		refs = append(refs, ref)
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].File != refs[j].File {
			return refs[i].File < refs[j].File
		}
		if refs[i].Line != refs[j].Line {
			return refs[i].Line < refs[j].Line
		}
		return refs[i].ContainingSymbol < refs[j].ContainingSymbol
	})
	return refs, nil
}

// FileInfo returns the record of one file, or nil when the path is unknown.
func (g *Graph) FileInfo(path string) *model.FileRecord {
	return g.Files[path]
}

// LanguageCounts recomputes per-project language counts from the files.
func (g *Graph) LanguageCounts() {
	counts := map[string]map[string]int{}
	for _, file := range g.Files {
		if counts[file.Project] == nil {
			counts[file.Project] = map[string]int{}
		}
		counts[file.Project][file.Language]++
	}
	for i := range g.Projects {
		g.Projects[i].LanguageCounts = counts[g.Projects[i].Name]
	}
}
