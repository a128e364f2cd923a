package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/flytohub/flyto-indexer/internal/model"
)

// httpClientBases are receiver names whose method calls are HTTP call sites
// rather than route declarations.
var httpClientBases = wordSet("axios", "$http", "http")

// extractTypeScript handles both TypeScript and JavaScript: functions, arrow
// consts, classes with methods, interfaces, type aliases, enums, exports,
// imports, express-style routes, and fetch/axios/$http call sites.
func extractTypeScript(ctx context.Context, p *Parser, path string, src []byte, res *Result) error {
	tree, err := parseTree(ctx, src, res.Language)
	if err != nil {
		return err
	}
	defer tree.Close()
	root := tree.RootNode()
	res.scrubbed = scrub(root, src)

	ts := &tsExtractor{p: p, path: path, src: src, res: res}
	ts.visit(root, false, "", 0)
	ts.collectCallSites(root, 0)
	return nil
}

// tsExtractor carries shared state through the recursive walk. lineOffset is
// added to every reported line; the Vue extractor leaves it zero because it
// blanks the bytes outside the script block, so lines are already file-absolute.
type tsExtractor struct {
	p          *Parser
	path       string
	src        []byte
	res        *Result
	lineOffset int
}

func (t *tsExtractor) visit(n *sitter.Node, exported bool, owner string, depth int) {
	switch n.Type() {
	case "export_statement":
		eachChild(n, func(child *sitter.Node) { t.visit(child, true, owner, depth) })
		return

	case "import_statement":
		t.addImport(n)
		return

	case "function_declaration", "generator_function_declaration":
		t.addFunction(n, exported, owner)
		return

	case "lexical_declaration", "variable_declaration":
		eachChild(n, func(child *sitter.Node) {
			if child.Type() == "variable_declarator" {
				t.addDeclarator(child, exported)
			}
		})
		return

	case "class_declaration":
		t.addClass(n, exported)
		return

	case "interface_declaration":
		t.addNamed(n, model.KindInterface, exported)
		return

	case "type_alias_declaration":
		t.addNamed(n, model.KindType, exported)
		return

	case "enum_declaration":
		t.addNamed(n, model.KindEnum, exported)
		return
	}

	if depth < 3 {
		eachChild(n, func(child *sitter.Node) { t.visit(child, exported, owner, depth+1) })
	}
}

func (t *tsExtractor) newSymbol(n *sitter.Node, kind model.Kind, name string, exported bool) *Symbol {
	return &Symbol{
		Record: model.SymbolRecord{
			ID:        model.MakeSymbolID(t.p.project, t.path, kind, name),
			Kind:      kind,
			Span:      model.Span{StartLine: startLine(n) + t.lineOffset, EndLine: endLine(n) + t.lineOffset},
			Signature: signatureOf(n, t.src),
			Doc:       docCommentAbove(n, t.src),
			Exported:  exported,
		},
		Body:      nodeText(n, t.src),
		startByte: n.StartByte(),
		endByte:   n.EndByte(),
	}
}

func (t *tsExtractor) addFunction(n *sitter.Node, exported bool, owner string) {
	name := nodeText(n.ChildByFieldName("name"), t.src)
	if name == "" {
		return
	}
	kind := model.KindFunction
	if owner != "" {
		kind = model.KindMethod
		name = owner + "." + name
	} else if strings.HasPrefix(name, "use") && len(name) > 3 {
		kind = model.KindComposable
	}
	t.res.Symbols = append(t.res.Symbols, *t.newSymbol(n, kind, name, exported))
}

// addDeclarator records const/let declarators whose value is a function.
func (t *tsExtractor) addDeclarator(n *sitter.Node, exported bool) {
	value := n.ChildByFieldName("value")
	if value == nil {
		return
	}
	switch value.Type() {
	case "arrow_function", "function_expression", "function":
	default:
		return
	}
	name := nodeText(n.ChildByFieldName("name"), t.src)
	if name == "" {
		return
	}
	kind := model.KindFunction
	if strings.HasPrefix(name, "use") && len(name) > 3 {
		kind = model.KindComposable
	}
	t.res.Symbols = append(t.res.Symbols, *t.newSymbol(n, kind, name, exported))
}

func (t *tsExtractor) addClass(n *sitter.Node, exported bool) {
	name := nodeText(n.ChildByFieldName("name"), t.src)
	if name == "" {
		return
	}
	sym := t.newSymbol(n, model.KindClass, name, exported)

	// extends / implements clauses
	walkNodes(n, func(node *sitter.Node) bool {
		switch node.Type() {
		case "extends_clause", "implements_clause":
			eachChild(node, func(base *sitter.Node) {
				if base.Type() == "identifier" || base.Type() == "type_identifier" {
					sym.Extends = append(sym.Extends, nodeText(base, t.src))
				}
			})
			return false
		case "class_body":
			return false
		}
		return true
	})
	t.res.Symbols = append(t.res.Symbols, *sym)

	if body := n.ChildByFieldName("body"); body != nil {
		eachChild(body, func(member *sitter.Node) {
			if member.Type() != "method_definition" {
				return
			}
			mname := nodeText(member.ChildByFieldName("name"), t.src)
			if mname == "" || mname == "constructor" {
				return
			}
			t.res.Symbols = append(t.res.Symbols,
				*t.newSymbol(member, model.KindMethod, name+"."+mname, exported))
		})
	}
}

func (t *tsExtractor) addNamed(n *sitter.Node, kind model.Kind, exported bool) {
	name := nodeText(n.ChildByFieldName("name"), t.src)
	if name == "" {
		return
	}
	sym := t.newSymbol(n, kind, name, exported)
	if kind == model.KindInterface {
		walkNodes(n, func(node *sitter.Node) bool {
			if node.Type() == "extends_type_clause" || node.Type() == "extends_clause" {
				eachChild(node, func(base *sitter.Node) {
					if base.Type() == "type_identifier" || base.Type() == "identifier" {
						sym.Extends = append(sym.Extends, nodeText(base, t.src))
					}
				})
				return false
			}
			return node.Type() != "interface_body" && node.Type() != "object_type"
		})
	}
	t.res.Symbols = append(t.res.Symbols, *sym)
}

// addImport handles `import { a, b as c } from 'm'`, default imports, and
// namespace imports.
func (t *tsExtractor) addImport(n *sitter.Node) {
	source := stringLiteralValue(n.ChildByFieldName("source"), t.src)
	if source == "" {
		return
	}
	imp := model.Import{Module: source, Line: startLine(n) + t.lineOffset}

	walkNodes(n, func(node *sitter.Node) bool {
		switch node.Type() {
		case "import_specifier":
			name := node.ChildByFieldName("name")
			if alias := node.ChildByFieldName("alias"); alias != nil {
				imp.Names = append(imp.Names, nodeText(alias, t.src))
			} else if name != nil {
				imp.Names = append(imp.Names, nodeText(name, t.src))
			}
			return false
		case "namespace_import":
			eachChild(node, func(id *sitter.Node) {
				if id.Type() == "identifier" {
					imp.Alias = nodeText(id, t.src)
					imp.Names = append(imp.Names, imp.Alias)
				}
			})
			return false
		case "import_clause":
			// default import: direct identifier child
			eachChild(node, func(id *sitter.Node) {
				if id.Type() == "identifier" {
					imp.Names = append(imp.Names, nodeText(id, t.src))
				}
			})
			return true
		}
		return true
	})

	t.res.Imports = append(t.res.Imports, imp)
}

// collectCallSites finds fetch/axios/$http/.request call sites and
// express-style route declarations across the file.
func (t *tsExtractor) collectCallSites(root *sitter.Node, lineOffset int) {
	walkNodes(root, func(n *sitter.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		args := n.ChildByFieldName("arguments")
		if fn == nil || args == nil {
			return true
		}

		switch fn.Type() {
		case "identifier":
			if nodeText(fn, t.src) == "fetch" {
				t.addCallSite(n, args, "GET", lineOffset)
			}

		case "member_expression":
			object := nodeText(fn.ChildByFieldName("object"), t.src)
			property := strings.ToLower(nodeText(fn.ChildByFieldName("property"), t.src))

			if property == "request" {
				t.addCallSite(n, args, "GET", lineOffset)
				return true
			}
			if _, isMethod := httpMethodNames[property]; !isMethod {
				return true
			}
			if _, isClient := httpClientBases[object]; isClient {
				t.addCallSite(n, args, strings.ToUpper(property), lineOffset)
				return true
			}
			// app.get("/p", handler) with a second argument is a route
			// declaration on the server side.
			if int(args.NamedChildCount()) >= 2 {
				if pattern := firstStringArg(args, t.src); pattern != "" && strings.HasPrefix(pattern, "/") {
					t.res.Routes = append(t.res.Routes, model.RouteDecl{
						Method:      strings.ToUpper(property),
						PathPattern: pattern,
						HandlerID:   t.containingSymbolID(n),
						Framework:   model.FrameworkExpress,
					})
				}
			}
		}
		return true
	})
}

// addCallSite records one HTTP call site when the first argument is a string
// literal. fetch options ({method: "POST"}) refine the method.
func (t *tsExtractor) addCallSite(call, args *sitter.Node, method string, lineOffset int) {
	url := firstStringArg(args, t.src)
	if url == "" {
		return
	}
	if m := fetchOptionsMethod(args, t.src); m != "" {
		method = m
	}
	t.res.Calls = append(t.res.Calls, model.CallSite{
		Method:           method,
		URLLiteral:       url,
		File:             t.path,
		Line:             startLine(call) + lineOffset + t.lineOffset,
		ContainingSymbol: t.containingSymbolID(call),
	})
}

// fetchOptionsMethod pulls method: "POST" out of a fetch options object.
func fetchOptionsMethod(args *sitter.Node, src []byte) string {
	var method string
	walkNodes(args, func(n *sitter.Node) bool {
		if n.Type() != "pair" {
			return true
		}
		key := strings.Trim(nodeText(n.ChildByFieldName("key"), src), "\"'`")
		if strings.EqualFold(key, "method") {
			if v := stringLiteralValue(n.ChildByFieldName("value"), src); v != "" {
				method = strings.ToUpper(v)
			}
			return false
		}
		return true
	})
	return method
}

// containingSymbolID resolves the innermost extracted symbol containing a
// node, defaulting to the file's module symbol.
func (t *tsExtractor) containingSymbolID(n *sitter.Node) model.SymbolID {
	at := n.StartByte()
	best := model.MakeSymbolID(t.p.project, t.path, model.KindModule, moduleName(t.path))
	bestSize := uint32(0)
	for i := range t.res.Symbols {
		sym := &t.res.Symbols[i]
		if at >= sym.startByte && at < sym.endByte {
			size := sym.endByte - sym.startByte
			if bestSize == 0 || size < bestSize {
				best = sym.Record.ID
				bestSize = size
			}
		}
	}
	return best
}
