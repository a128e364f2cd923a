// Package parser extracts symbols, imports, routes, and HTTP call sites from
// source files. One extractor per language, coordinated by a common contract:
// every extractor is total — a failure on one construct skips that construct,
// and only undecodable bytes or a failed (including timed-out) parse mark the
// whole file as a parse error.
package parser

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/flytohub/flyto-indexer/internal/lang"
	"github.com/flytohub/flyto-indexer/internal/manifest"
	"github.com/flytohub/flyto-indexer/internal/model"
)

// Ref is one textual reference found in a symbol body.
type Ref struct {
	Name string
	Line int
	Call bool // followed by "(" at the reference site

	offset uint32
}

// Symbol pairs the stored record with the extraction detail the graph
// builder needs.
type Symbol struct {
	Record  model.SymbolRecord
	Body    string
	Refs    []Ref
	Extends []string

	startByte uint32
	endByte   uint32
}

// Result is the uniform output of every language extractor for one file.
type Result struct {
	Path       string
	Project    string
	Language   lang.Language
	Symbols    []Symbol
	Imports    []model.Import
	Routes     []model.RouteDecl
	Calls      []model.CallSite
	ParseError bool

	scrubbed []byte // source with comments and strings blanked, for the ref sweep
}

// extractor turns decoded source into a Result. Extractors append symbols,
// imports, routes and call sites; shared post-processing fills refs and
// body hashes.
type extractor func(ctx context.Context, p *Parser, path string, src []byte, res *Result) error

// dispatch is the per-language extraction table.
var dispatch = map[lang.Language]extractor{
	lang.Python:     extractPython,
	lang.TypeScript: extractTypeScript,
	lang.JavaScript: extractTypeScript,
	lang.Vue:        extractVue,
	lang.Go:         extractGo,
	lang.Rust:       extractRust,
	lang.Java:       extractJava,
}

// Parser extracts symbols for one project.
type Parser struct {
	project string
}

// New creates a parser for the named project.
func New(project string) *Parser {
	return &Parser{project: project}
}

// ParseFile extracts everything from one file. The context carries the
// per-file parse deadline; on expiry the file is recorded as a parse error
// with zero symbols and the run continues.
func (p *Parser) ParseFile(ctx context.Context, path string, language lang.Language, src []byte) (*Result, error) {
	res := &Result{
		Path:     path,
		Project:  p.project,
		Language: language,
	}

	if !utf8.Valid(src) {
		res.ParseError = true
		return res, nil
	}

	extract, ok := dispatch[language]
	if !ok {
		return res, nil
	}

	if err := extract(ctx, p, path, src, res); err != nil {
		// Total parsing: a failed file keeps its record, flagged.
		res.Symbols = nil
		res.Imports = nil
		res.Routes = nil
		res.Calls = nil
		res.ParseError = true
		return res, nil
	}

	p.finish(path, language, src, res)
	return res, nil
}

// moduleName is the symbol name of the per-file module symbol.
func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// finish appends the module symbol, attributes refs to the innermost
// enclosing symbol, and stamps body hashes.
func (p *Parser) finish(path string, language lang.Language, src []byte, res *Result) {
	// Every file gets a module-level symbol so file-scope references have an
	// owner. Vue components already play that role.
	if language != lang.Vue {
		lineCount := strings.Count(string(src), "\n") + 1
		module := Symbol{
			Record: model.SymbolRecord{
				ID:       model.MakeSymbolID(p.project, path, model.KindModule, moduleName(path)),
				Kind:     model.KindModule,
				Span:     model.Span{StartLine: 1, EndLine: lineCount},
				Exported: true,
			},
			Body:      string(src),
			startByte: 0,
			endByte:   uint32(len(src)),
		}
		res.Symbols = append(res.Symbols, module)
	}

	attributeRefs(res, src, language)

	for i := range res.Symbols {
		sym := &res.Symbols[i]
		sym.Record.BodyHash = manifest.HashString(manifest.Hash([]byte(sym.Body)))
		sym.Record.RefsOut = refNames(sym.Refs)

		var calls []Ref
		for _, r := range sym.Refs {
			if r.Call {
				calls = append(calls, r)
			}
		}
		sym.Record.CallsOut = refNames(calls)
		if len(sym.Extends) > 0 {
			sym.Record.ExtendsOut = append([]string(nil), sym.Extends...)
			sym.Record.RefsOut = mergeNames(sym.Record.RefsOut, sym.Extends)
		}
	}
}

// mergeNames appends extras not already present, preserving order.
func mergeNames(base, extras []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, n := range base {
		seen[n] = struct{}{}
	}
	for _, n := range extras {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			base = append(base, n)
		}
	}
	return base
}

func refNames(refs []Ref) []string {
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(refs))
	var names []string
	for _, r := range refs {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		names = append(names, r.Name)
	}
	return names
}
