package graph

import (
	"path"
	"strings"

	"github.com/flytohub/flyto-indexer/internal/model"
)

// Resolve re-derives every edge, the reverse index, and the unresolved
// bucket from the current symbol records. Binding runs in three tiers:
//
//  1. intra-file: the name matches a symbol in the same file (exact)
//  2. import-qualified: the name reaches a symbol through the file's
//     import table (likely)
//  3. workspace fallback: the name is globally unique (heuristic);
//     ambiguous names go to the unresolved bucket and emit no edge
func (g *Graph) Resolve() {
	g.Edges = nil
	g.Reverse = map[model.SymbolID][]model.SymbolID{}
	g.Unresolved = map[string][]model.SymbolID{}

	g.pathOrder = g.sortedFilePaths()
	defer func() { g.pathOrder = nil }()

	idx := g.buildNameIndex()
	emitted := map[edgeKey]struct{}{}

	for _, filePath := range g.pathOrder {
		file := g.Files[filePath]
		imports := importTable(file)

		g.resolveImports(file, emitted)

		for _, symID := range file.Symbols {
			sym, ok := g.Symbols[symID]
			if !ok {
				continue
			}
			for _, name := range sym.RefsOut {
				target, confidence := g.bind(name, file, imports, idx, symID)
				if target == "" {
					continue
				}
				kind := edgeKindFor(sym, name)
				k := edgeKey{symID, target, kind}
				if _, dup := emitted[k]; dup {
					continue
				}
				emitted[k] = struct{}{}
				g.appendEdge(model.Edge{From: symID, To: target, Kind: kind, Confidence: confidence})
			}
		}
	}

	g.normalize()
}

// edgeKey dedups edges during resolution.
type edgeKey struct {
	from, to model.SymbolID
	kind     model.EdgeKind
}

// edgeKindFor derives the edge kind from where the name was seen.
func edgeKindFor(sym *model.SymbolRecord, name string) model.EdgeKind {
	for _, e := range sym.ExtendsOut {
		if e == name {
			return model.EdgeExtends
		}
	}
	for _, c := range sym.CallsOut {
		if c == name {
			return model.EdgeCalls
		}
	}
	return model.EdgeReferences
}

// nameIndex maps short names to their defining symbols, workspace-wide and
// per file.
type nameIndex struct {
	global map[string][]model.SymbolID
	byFile map[string]map[string][]model.SymbolID
}

func (g *Graph) buildNameIndex() *nameIndex {
	idx := &nameIndex{
		global: map[string][]model.SymbolID{},
		byFile: map[string]map[string][]model.SymbolID{},
	}
	for _, filePath := range g.pathOrder {
		file := g.Files[filePath]
		local := map[string][]model.SymbolID{}
		for _, id := range file.Symbols {
			sym, ok := g.Symbols[id]
			if !ok {
				continue
			}
			name := sym.ID.Name()
			keys := []string{name}
			// Owner.method is also findable by its bare method name.
			if i := strings.LastIndexByte(name, '.'); i >= 0 {
				keys = append(keys, name[i+1:])
			}
			for _, key := range keys {
				local[key] = append(local[key], id)
				idx.global[key] = append(idx.global[key], id)
			}
		}
		idx.byFile[filePath] = local
	}
	return idx
}

// importTable flattens a file's imports into name -> module string.
func importTable(file *model.FileRecord) map[string]string {
	table := map[string]string{}
	for _, imp := range file.Imports {
		for _, name := range imp.Names {
			table[name] = imp.Module
		}
		if imp.Alias != "" {
			table[imp.Alias] = imp.Module
		}
	}
	return table
}

// bind resolves one referenced name for a symbol in file. It returns the
// bound target and tier, or "" when the name stays unresolved.
func (g *Graph) bind(name string, file *model.FileRecord, imports map[string]string, idx *nameIndex, self model.SymbolID) (model.SymbolID, model.Confidence) {
	lookup := name
	first := name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		first = name[:i]
		lookup = name[strings.LastIndexByte(name, '.')+1:]
	}

	// Tier 1: local symbols of the same file.
	if local := idx.byFile[file.Path]; local != nil {
		if target := g.pickCandidate(filterSelf(local[name], self), file.Project); target != "" {
			return target, model.ConfidenceExact
		}
		if lookup != name {
			if target := g.pickCandidate(filterSelf(local[lookup], self), file.Project); target != "" {
				return target, model.ConfidenceExact
			}
		}
	}

	// Tier 2: the first segment is imported; resolve through the module
	// string to the defining file, then match the name there.
	if module, ok := imports[first]; ok {
		if target := g.resolveThroughModule(module, name, lookup, file); target != "" {
			return target, model.ConfidenceLikely
		}
	}

	// Tier 3: workspace-unique names bind heuristically; ambiguity is
	// surfaced, never guessed.
	candidates := filterSelf(idx.global[name], self)
	if len(candidates) == 0 && lookup != name {
		candidates = filterSelf(idx.global[lookup], self)
	}
	switch len(candidates) {
	case 0:
		return "", ""
	case 1:
		return candidates[0], model.ConfidenceHeuristic
	default:
		g.Unresolved[name] = append(g.Unresolved[name], candidates...)
		return "", ""
	}
}

func filterSelf(ids []model.SymbolID, self model.SymbolID) []model.SymbolID {
	var out []model.SymbolID
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

// resolveThroughModule finds the file a module string points at and a
// matching symbol inside it.
func (g *Graph) resolveThroughModule(module, name, lookup string, from *model.FileRecord) model.SymbolID {
	for _, candidatePath := range moduleCandidatePaths(module, from.Path) {
		for _, filePath := range g.pathOrder {
			file := g.Files[filePath]
			if !pathMatchesModule(filePath, candidatePath) {
				continue
			}
			var best model.SymbolID
			for _, id := range file.Symbols {
				sym, ok := g.Symbols[id]
				if !ok {
					continue
				}
				symName := sym.ID.Name()
				if symName == name || symName == lookup || strings.HasSuffix(symName, "."+lookup) {
					if best == "" || preferCandidate(g.Symbols, id, best, from.Project) {
						best = id
					}
				}
			}
			if best != "" {
				return best
			}
		}
	}
	return ""
}

// moduleCandidatePaths expands a module string into path fragments to try,
// handling relative imports, the @/ alias, and dotted python modules.
func moduleCandidatePaths(module, fromPath string) []string {
	var out []string
	switch {
	case strings.HasPrefix(module, "./"), strings.HasPrefix(module, "../"):
		out = append(out, path.Clean(path.Join(path.Dir(fromPath), module)))
	case strings.HasPrefix(module, "@/"):
		out = append(out, "src/"+strings.TrimPrefix(module, "@/"))
	}
	out = append(out, strings.ReplaceAll(module, ".", "/"))
	out = append(out, module)
	if i := strings.LastIndexByte(module, '/'); i >= 0 {
		out = append(out, module[i+1:])
	}
	return out
}

// pathMatchesModule reports whether a workspace file plausibly implements a
// module fragment: exact path match modulo extension, or a trailing-segment
// match.
func pathMatchesModule(filePath, fragment string) bool {
	if fragment == "" {
		return false
	}
	noExt := strings.TrimSuffix(filePath, path.Ext(filePath))
	if noExt == fragment || filePath == fragment {
		return true
	}
	return strings.HasSuffix(noExt, "/"+fragment)
}

// pickCandidate applies the deterministic tie-break to candidates of one
// tier: same project first, exported next, lexicographic last.
func (g *Graph) pickCandidate(candidates []model.SymbolID, project string) model.SymbolID {
	var best model.SymbolID
	for _, id := range candidates {
		if _, ok := g.Symbols[id]; !ok {
			continue
		}
		if best == "" || preferCandidate(g.Symbols, id, best, project) {
			best = id
		}
	}
	return best
}

func preferCandidate(symbols map[model.SymbolID]*model.SymbolRecord, a, b model.SymbolID, project string) bool {
	aProj := a.Project() == project
	bProj := b.Project() == project
	if aProj != bProj {
		return aProj
	}
	aExp := symbols[a] != nil && symbols[a].Exported
	bExp := symbols[b] != nil && symbols[b].Exported
	if aExp != bExp {
		return aExp
	}
	return a < b
}

// resolveImports emits imports edges from a file's module-level symbol to
// the module symbol of each workspace file its import table reaches.
func (g *Graph) resolveImports(file *model.FileRecord, emitted map[edgeKey]struct{}) {
	fromID := g.fileScopeSymbol(file)
	if fromID == "" {
		return
	}
	for _, imp := range file.Imports {
		for _, candidatePath := range moduleCandidatePaths(imp.Module, file.Path) {
			var matched *model.FileRecord
			for _, filePath := range g.pathOrder {
				if filePath != file.Path && pathMatchesModule(filePath, candidatePath) {
					matched = g.Files[filePath]
					break
				}
			}
			if matched == nil {
				continue
			}
			toID := g.fileScopeSymbol(matched)
			if toID == "" {
				break
			}
			k := edgeKey{fromID, toID, model.EdgeImports}
			if _, dup := emitted[k]; !dup {
				emitted[k] = struct{}{}
				g.appendEdge(model.Edge{From: fromID, To: toID, Kind: model.EdgeImports, Confidence: model.ConfidenceLikely})
			}
			break
		}
	}
}

// fileScopeSymbol returns the module (or Vue component) symbol of a file.
func (g *Graph) fileScopeSymbol(file *model.FileRecord) model.SymbolID {
	for _, id := range file.Symbols {
		sym, ok := g.Symbols[id]
		if !ok {
			continue
		}
		if sym.Kind == model.KindModule || sym.Kind == model.KindComponent {
			return id
		}
	}
	return ""
}
