// Package model defines the core data types shared across the indexer:
// symbols, files, edges, routes, and the SymbolID primary key.
//
// SymbolID format: project:path:kind:name
// Example: flyto-cloud:src/pages/TopUp.vue:component:TopUp
package model

import (
	"fmt"
	"strings"
)

// Kind classifies a symbol.
type Kind string

const (
	KindFunction   Kind = "function"
	KindMethod     Kind = "method"
	KindClass      Kind = "class"
	KindStruct     Kind = "struct"
	KindInterface  Kind = "interface"
	KindTrait      Kind = "trait"
	KindComponent  Kind = "component"
	KindComposable Kind = "composable"
	KindType       Kind = "type"
	KindEnum       Kind = "enum"
	KindConstant   Kind = "constant"
	KindModule     Kind = "module"
	KindRoute      Kind = "route"
)

// EdgeKind classifies a dependency edge.
type EdgeKind string

const (
	EdgeCalls      EdgeKind = "calls"
	EdgeImports    EdgeKind = "imports"
	EdgeExtends    EdgeKind = "extends"
	EdgeReferences EdgeKind = "references"
	EdgeRoutesTo   EdgeKind = "routes_to"
)

// Confidence is the resolution confidence tier for an edge.
type Confidence string

const (
	ConfidenceExact     Confidence = "exact"
	ConfidenceLikely    Confidence = "likely"
	ConfidenceHeuristic Confidence = "heuristic"
)

// confidenceRank orders tiers for comparisons; higher is stronger.
var confidenceRank = map[Confidence]int{
	ConfidenceHeuristic: 1,
	ConfidenceLikely:    2,
	ConfidenceExact:     3,
}

// Stronger reports whether a is a strictly stronger tier than b.
func (a Confidence) Stronger(b Confidence) bool {
	return confidenceRank[a] > confidenceRank[b]
}

// SymbolID is the stable primary key of the graph: project:path:kind:name.
// IDs are stable across runs as long as the four components are stable.
type SymbolID string

// MakeSymbolID assembles a SymbolID from its four components.
func MakeSymbolID(project, path string, kind Kind, name string) SymbolID {
	return SymbolID(project + ":" + path + ":" + string(kind) + ":" + name)
}

// Parse splits a SymbolID into its components. The path component may itself
// contain colons on exotic filesystems, so the kind and name are taken from
// the tail and the path is everything in between.
func (id SymbolID) Parse() (project, path string, kind Kind, name string, err error) {
	parts := strings.Split(string(id), ":")
	if len(parts) < 4 {
		return "", "", "", "", fmt.Errorf("malformed symbol id %q: want project:path:kind:name", string(id))
	}
	project = parts[0]
	name = parts[len(parts)-1]
	kind = Kind(parts[len(parts)-2])
	path = strings.Join(parts[1:len(parts)-2], ":")
	if project == "" || path == "" || kind == "" || name == "" {
		return "", "", "", "", fmt.Errorf("malformed symbol id %q: empty component", string(id))
	}
	return project, path, kind, name, nil
}

// Project returns the project component, or "" for a malformed ID.
func (id SymbolID) Project() string {
	p, _, _, _, err := id.Parse()
	if err != nil {
		return ""
	}
	return p
}

// Path returns the path component, or "" for a malformed ID.
func (id SymbolID) Path() string {
	_, p, _, _, err := id.Parse()
	if err != nil {
		return ""
	}
	return p
}

// Name returns the name component, or "" for a malformed ID.
func (id SymbolID) Name() string {
	_, _, _, n, err := id.Parse()
	if err != nil {
		return ""
	}
	return n
}

// Span is a line range within a file, 1-indexed and inclusive.
type Span struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

// SymbolRecord is the per-symbol unit emitted by language parsers and stored
// in the index. Records are replaced wholesale on file re-parse, never
// mutated in place by queries.
type SymbolRecord struct {
	ID         SymbolID   `json:"id"`
	Kind       Kind       `json:"kind"`
	Span       Span       `json:"span"`
	Signature  string     `json:"signature,omitempty"`
	Doc        string     `json:"doc,omitempty"`
	Decorators []string   `json:"decorators,omitempty"`
	Exported   bool       `json:"exported"`
	RefsOut    []string   `json:"refsOut,omitempty"`
	// CallsOut and ExtendsOut are the subsets of RefsOut seen at call sites
	// and in inheritance clauses. Edge kinds are re-derived from the cache,
	// so the distinction has to survive serialization.
	CallsOut   []string   `json:"callsOut,omitempty"`
	ExtendsOut []string   `json:"extendsOut,omitempty"`
	BodyHash   string     `json:"bodyHash,omitempty"` // hex of the 64-bit body hash
}

// Import is one import statement of a file.
type Import struct {
	Module string   `json:"module"`
	Alias  string   `json:"alias,omitempty"`
	Names  []string `json:"names,omitempty"`
	Line   int      `json:"line"`
}

// Framework identifies the web framework a route declaration came from.
type Framework string

const (
	FrameworkFastAPI   Framework = "fastapi"
	FrameworkFlask     Framework = "flask"
	FrameworkStarlette Framework = "starlette"
	FrameworkExpress   Framework = "express"
	FrameworkOther     Framework = "other"
)

// RouteDecl is an HTTP route declaration on the backend side.
type RouteDecl struct {
	Method      string    `json:"method"`
	PathPattern string    `json:"pathPattern"`
	HandlerID   SymbolID  `json:"handler"`
	Framework   Framework `json:"framework"`
}

// CallSite is an HTTP call site on the frontend side, extracted from
// fetch/axios/$http style invocations whose first argument is a string
// literal.
type CallSite struct {
	Method           string   `json:"method"`
	URLLiteral       string   `json:"url"`
	File             string   `json:"file"`
	Line             int      `json:"line"`
	ContainingSymbol SymbolID `json:"containingSymbol"`
}

// FileRecord aggregates everything extracted from one file.
type FileRecord struct {
	Path        string      `json:"path"`
	Project     string      `json:"project"`
	Language    string      `json:"language"`
	ContentHash string      `json:"contentHash"`
	Symbols     []SymbolID  `json:"symbols"`
	Imports     []Import    `json:"imports,omitempty"`
	Routes      []RouteDecl `json:"routes,omitempty"`
	Calls       []CallSite  `json:"calls,omitempty"`
	ParseError  bool        `json:"parseError,omitempty"`
}

// Edge is one dependency edge in the symbol graph. To always names a known
// symbol; unresolved names live in a separate bucket and never appear here.
type Edge struct {
	From       SymbolID   `json:"from"`
	To         SymbolID   `json:"to"`
	Kind       EdgeKind   `json:"kind"`
	Confidence Confidence `json:"confidence"`
}

// Project describes one project sharing the workspace. Symbol namespaces of
// distinct projects are disjoint by name.
type Project struct {
	Name           string         `json:"name"`
	Root           string         `json:"root"`
	LanguageCounts map[string]int `json:"languageCounts,omitempty"`
}
