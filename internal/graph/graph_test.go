package graph

import (
	"testing"

	"github.com/flytohub/flyto-indexer/internal/errors"
	"github.com/flytohub/flyto-indexer/internal/model"
)

// addFile installs a file whose symbols are built from short specs.
type symSpec struct {
	kind     model.Kind
	name     string
	exported bool
	refs     []string
	calls    []string
	extends  []string
}

func addFile(g *Graph, project, path string, imports []model.Import, specs ...symSpec) {
	file := &model.FileRecord{
		Path:     path,
		Project:  project,
		Language: "python",
		Imports:  imports,
	}
	var records []*model.SymbolRecord
	for _, spec := range specs {
		rec := &model.SymbolRecord{
			ID:         model.MakeSymbolID(project, path, spec.kind, spec.name),
			Kind:       spec.kind,
			Exported:   spec.exported,
			RefsOut:    spec.refs,
			CallsOut:   spec.calls,
			ExtendsOut: spec.extends,
			Span:       model.Span{StartLine: 1, EndLine: 2},
		}
		file.Symbols = append(file.Symbols, rec.ID)
		records = append(records, rec)
	}
	g.ApplyFile(file, records)
}

func id(project, path string, kind model.Kind, name string) model.SymbolID {
	return model.MakeSymbolID(project, path, kind, name)
}

func findEdge(g *Graph, from, to model.SymbolID) *model.Edge {
	for i := range g.Edges {
		if g.Edges[i].From == from && g.Edges[i].To == to {
			return &g.Edges[i]
		}
	}
	return nil
}

func TestResolveIntraFileIsExact(t *testing.T) {
	g := New()
	addFile(g, "app", "a.py", nil,
		symSpec{kind: model.KindFunction, name: "helper", exported: true},
		symSpec{kind: model.KindFunction, name: "main", exported: true,
			refs: []string{"helper"}, calls: []string{"helper"}},
	)
	g.Resolve()

	e := findEdge(g, id("app", "a.py", model.KindFunction, "main"), id("app", "a.py", model.KindFunction, "helper"))
	if e == nil {
		t.Fatalf("intra-file edge missing: %+v", g.Edges)
	}
	if e.Confidence != model.ConfidenceExact {
		t.Errorf("confidence = %q, want exact", e.Confidence)
	}
	if e.Kind != model.EdgeCalls {
		t.Errorf("kind = %q, want calls", e.Kind)
	}
}

func TestResolveImportQualifiedIsLikely(t *testing.T) {
	g := New()
	addFile(g, "app", "a.py", nil,
		symSpec{kind: model.KindFunction, name: "foo", exported: true})
	addFile(g, "app", "b.py",
		[]model.Import{{Module: "a", Names: []string{"foo"}, Line: 1}},
		symSpec{kind: model.KindFunction, name: "main", exported: true,
			refs: []string{"foo"}, calls: []string{"foo"}},
	)
	g.Resolve()

	e := findEdge(g, id("app", "b.py", model.KindFunction, "main"), id("app", "a.py", model.KindFunction, "foo"))
	if e == nil {
		t.Fatalf("import-qualified edge missing: %+v", g.Edges)
	}
	if e.Confidence != model.ConfidenceLikely {
		t.Errorf("confidence = %q, want likely", e.Confidence)
	}
}

func TestResolveWorkspaceUniqueIsHeuristic(t *testing.T) {
	g := New()
	addFile(g, "app", "deep/util.py", nil,
		symSpec{kind: model.KindFunction, name: "rare_name", exported: true})
	addFile(g, "app", "other.py", nil,
		symSpec{kind: model.KindFunction, name: "main", exported: true, refs: []string{"rare_name"}})
	g.Resolve()

	e := findEdge(g, id("app", "other.py", model.KindFunction, "main"), id("app", "deep/util.py", model.KindFunction, "rare_name"))
	if e == nil {
		t.Fatalf("workspace-unique edge missing: %+v", g.Edges)
	}
	if e.Confidence != model.ConfidenceHeuristic {
		t.Errorf("confidence = %q, want heuristic", e.Confidence)
	}
}

func TestResolveAmbiguousEmitsNoEdge(t *testing.T) {
	g := New()
	addFile(g, "app", "x.py", nil,
		symSpec{kind: model.KindFunction, name: "dup", exported: true})
	addFile(g, "app", "y.py", nil,
		symSpec{kind: model.KindFunction, name: "dup", exported: true})
	addFile(g, "app", "z.py", nil,
		symSpec{kind: model.KindFunction, name: "main", exported: true, refs: []string{"dup"}})
	g.Resolve()

	if e := findEdge(g, id("app", "z.py", model.KindFunction, "main"), id("app", "x.py", model.KindFunction, "dup")); e != nil {
		t.Error("ambiguous name must not produce an edge")
	}
	candidates := g.Unresolved["dup"]
	if len(candidates) != 2 {
		t.Errorf("unresolved candidates = %v, want both definitions", candidates)
	}
}

func TestResolveExtendsKind(t *testing.T) {
	g := New()
	addFile(g, "app", "base.py", nil,
		symSpec{kind: model.KindClass, name: "Base", exported: true})
	addFile(g, "app", "child.py", nil,
		symSpec{kind: model.KindClass, name: "Child", exported: true,
			refs: []string{"Base"}, extends: []string{"Base"}})
	g.Resolve()

	e := findEdge(g, id("app", "child.py", model.KindClass, "Child"), id("app", "base.py", model.KindClass, "Base"))
	if e == nil {
		t.Fatal("extends edge missing")
	}
	if e.Kind != model.EdgeExtends {
		t.Errorf("kind = %q, want extends", e.Kind)
	}
}

func TestReverseIndexConsistency(t *testing.T) {
	g := New()
	addFile(g, "app", "a.py", nil,
		symSpec{kind: model.KindFunction, name: "callee", exported: true})
	addFile(g, "app", "b.py", nil,
		symSpec{kind: model.KindFunction, name: "caller", exported: true,
			refs: []string{"callee"}, calls: []string{"callee"}})
	g.Resolve()

	if err := g.Verify(); err != nil {
		t.Fatalf("Verify failed on a consistent graph: %v", err)
	}

	// Break the invariant and expect detection, never silent repair.
	g.Reverse[id("app", "a.py", model.KindFunction, "callee")] = append(
		g.Reverse[id("app", "a.py", model.KindFunction, "callee")],
		id("app", "b.py", model.KindFunction, "ghost"))
	if err := g.Verify(); errors.CodeOf(err) != errors.InvariantViolation {
		t.Errorf("Verify = %v, want invariant_violation", err)
	}
}

func TestRemoveFilePurgesSymbolsAndDemotesEdges(t *testing.T) {
	g := New()
	addFile(g, "app", "a.py", nil,
		symSpec{kind: model.KindFunction, name: "foo", exported: true})
	addFile(g, "app", "b.py",
		[]model.Import{{Module: "a", Names: []string{"foo"}, Line: 1}},
		symSpec{kind: model.KindFunction, name: "main", exported: true,
			refs: []string{"foo"}, calls: []string{"foo"}},
	)
	g.Resolve()

	target := id("app", "a.py", model.KindFunction, "foo")
	if len(g.Reverse[target]) == 0 {
		t.Fatal("setup: reverse entry expected")
	}

	g.RemoveFile("a.py")
	g.Resolve()

	if _, ok := g.Symbols[target]; ok {
		t.Error("deleted file's symbol survived")
	}
	if len(g.Reverse[target]) != 0 {
		t.Error("reverse index for deleted symbol not purged")
	}
	if e := findEdge(g, id("app", "b.py", model.KindFunction, "main"), target); e != nil {
		t.Error("edge to deleted symbol survived as dangling ID")
	}
	if err := g.Verify(); err != nil {
		t.Errorf("graph inconsistent after delete: %v", err)
	}
}

func TestImpactDepth(t *testing.T) {
	// Chain: f -> g -> h across three files; impact(h) walks callers.
	g := New()
	addFile(g, "app", "h.py", nil,
		symSpec{kind: model.KindFunction, name: "h_fn", exported: true})
	addFile(g, "app", "g.py",
		[]model.Import{{Module: "h", Names: []string{"h_fn"}, Line: 1}},
		symSpec{kind: model.KindFunction, name: "g_fn", exported: true,
			refs: []string{"h_fn"}, calls: []string{"h_fn"}})
	addFile(g, "app", "f.py",
		[]model.Import{{Module: "g", Names: []string{"g_fn"}, Line: 1}},
		symSpec{kind: model.KindFunction, name: "f_fn", exported: true,
			refs: []string{"g_fn"}, calls: []string{"g_fn"}})
	g.Resolve()

	hID := id("app", "h.py", model.KindFunction, "h_fn")

	depth1, err := g.Impact(hID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if depth1.Total != 1 {
		t.Errorf("impact depth 1 total = %d, want 1 (g only)", depth1.Total)
	}

	depth2, err := g.Impact(hID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if depth2.Total != 2 {
		t.Errorf("impact depth 2 total = %d, want 2 (g and f)", depth2.Total)
	}
	nodes := depth2.ByProject["app"]
	if len(nodes) != 2 || nodes[0].Depth != 1 || nodes[1].Depth != 2 {
		t.Errorf("impact nodes = %+v", nodes)
	}
}

func TestImpactUnknownSymbol(t *testing.T) {
	g := New()
	_, err := g.Impact(id("app", "a.py", model.KindFunction, "nope"), 2)
	if errors.CodeOf(err) != errors.SymbolNotFound {
		t.Errorf("err = %v, want symbol_not_found", err)
	}
	_, err = g.Impact("garbage", 2)
	if errors.CodeOf(err) != errors.MalformedSymbolID {
		t.Errorf("err = %v, want malformed_symbol_id", err)
	}
}

func TestReferences(t *testing.T) {
	g := New()
	addFile(g, "app", "a.py", nil,
		symSpec{kind: model.KindFunction, name: "foo", exported: true})
	addFile(g, "app", "b.py",
		[]model.Import{{Module: "a", Names: []string{"foo"}, Line: 1}},
		symSpec{kind: model.KindFunction, name: "main", exported: true,
			refs: []string{"foo"}, calls: []string{"foo"}})
	g.Resolve()

	refs, err := g.References(id("app", "a.py", model.KindFunction, "foo"))
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs = %+v, want one", refs)
	}
	if refs[0].File != "b.py" || refs[0].ContainingSymbol != id("app", "b.py", model.KindFunction, "main") {
		t.Errorf("ref = %+v", refs[0])
	}
}

func TestTieBreakPrefersSameProjectThenExported(t *testing.T) {
	g := New()
	// Two local definitions of the same name in one file: exported wins.
	addFile(g, "app", "pair.py", nil,
		symSpec{kind: model.KindFunction, name: "dup", exported: false},
		symSpec{kind: model.KindClass, name: "dup", exported: true},
		symSpec{kind: model.KindFunction, name: "user", exported: true, refs: []string{"dup"}},
	)
	g.Resolve()

	e := findEdge(g, id("app", "pair.py", model.KindFunction, "user"), id("app", "pair.py", model.KindClass, "dup"))
	if e == nil {
		t.Errorf("tie-break should pick the exported candidate: %+v", g.Edges)
	}

	// Across projects, a same-project candidate beats an exported one elsewhere.
	addFile(g, "lib", "lib/shared.py", nil,
		symSpec{kind: model.KindFunction, name: "shared", exported: true})
	addFile(g, "app", "app/shared.py", nil,
		symSpec{kind: model.KindFunction, name: "shared", exported: false})
	libShared := id("lib", "lib/shared.py", model.KindFunction, "shared")
	appShared := id("app", "app/shared.py", model.KindFunction, "shared")
	if got := g.pickCandidate([]model.SymbolID{libShared, appShared}, "app"); got != appShared {
		t.Errorf("tie-break should pick the same-project candidate, got %s", got)
	}
}

func TestMarshalDeterministicAndForwardCompatible(t *testing.T) {
	g := New()
	g.Projects = []model.Project{{Name: "app", Root: "."}}
	addFile(g, "app", "a.py", nil,
		symSpec{kind: model.KindFunction, name: "foo", exported: true})
	g.Resolve()

	first, err := g.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("repeated marshal should be byte-identical")
	}

	loaded, err := Unmarshal(first)
	if err != nil {
		t.Fatal(err)
	}
	third, err := loaded.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if string(third) != string(first) {
		t.Error("marshal -> load -> marshal should be byte-identical")
	}

	// Unknown top-level keys are ignored; missing keys default to empty.
	sparse, err := Unmarshal([]byte(`{"version":"9.9.9","futureKey":{"x":1}}`))
	if err != nil {
		t.Fatalf("forward-compat load failed: %v", err)
	}
	if len(sparse.Symbols) != 0 || len(sparse.Reverse) != 0 {
		t.Error("missing keys should default to empty collections")
	}
}
