package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/flytohub/flyto-indexer/internal/lang"
	"github.com/flytohub/flyto-indexer/internal/model"
)

// httpMethodNames are the decorator attributes recognized as route
// declarations: @app.get("/x"), @router.post("/y"), ...
var httpMethodNames = wordSet("get", "post", "put", "delete", "patch", "head", "options")

// extractPython walks the Python AST for module-level and nested functions,
// classes, methods, decorated routes, and imports.
func extractPython(ctx context.Context, p *Parser, path string, src []byte, res *Result) error {
	tree, err := parseTree(ctx, src, lang.Python)
	if err != nil {
		return err
	}
	defer tree.Close()
	root := tree.RootNode()
	res.scrubbed = scrub(root, src)

	var visit func(n *sitter.Node, owner string)
	visit = func(n *sitter.Node, owner string) {
		switch n.Type() {
		case "import_statement", "import_from_statement":
			res.Imports = append(res.Imports, pythonImports(n, src)...)
			return

		case "decorated_definition":
			decorators, routes := pythonDecorators(n, src)
			def := n.ChildByFieldName("definition")
			if def == nil {
				return
			}
			sym := pythonDefinition(p, path, def, src, owner)
			if sym == nil {
				return
			}
			sym.Record.Decorators = decorators
			for _, r := range routes {
				r.HandlerID = sym.Record.ID
				res.Routes = append(res.Routes, r)
			}
			res.Symbols = append(res.Symbols, *sym)
			visitBody(def, sym, visit)
			return

		case "function_definition", "class_definition":
			sym := pythonDefinition(p, path, n, src, owner)
			if sym == nil {
				return
			}
			res.Symbols = append(res.Symbols, *sym)
			visitBody(n, sym, visit)
			return

		case "expression_statement":
			if owner == "" {
				if c := pythonConstant(p, path, n, src); c != nil {
					res.Symbols = append(res.Symbols, *c)
				}
			}
			return
		}

		eachChild(n, func(child *sitter.Node) { visit(child, owner) })
	}
	visit(root, "")

	return nil
}

// visitBody descends into a definition body. Only class bodies confer
// ownership: their functions become Owner.method symbols. Functions nested
// inside functions stay plain functions.
func visitBody(def *sitter.Node, sym *Symbol, visit func(*sitter.Node, string)) {
	body := def.ChildByFieldName("body")
	if body == nil {
		return
	}
	owner := ""
	if sym.Record.Kind == model.KindClass {
		owner = sym.Record.ID.Name()
		// Nested classes contribute only their own name segment.
		if i := strings.LastIndexByte(owner, '.'); i >= 0 {
			owner = owner[i+1:]
		}
	}
	eachChild(body, func(child *sitter.Node) { visit(child, owner) })
}

// pythonDefinition builds the symbol for a function or class definition node.
func pythonDefinition(p *Parser, path string, n *sitter.Node, src []byte, owner string) *Symbol {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, src)

	var kind model.Kind
	var extends []string
	switch n.Type() {
	case "class_definition":
		kind = model.KindClass
		if supers := n.ChildByFieldName("superclasses"); supers != nil {
			eachChild(supers, func(base *sitter.Node) {
				if t := nodeText(base, src); t != "" && !strings.ContainsAny(t, "(,=") {
					extends = append(extends, t)
				}
			})
		}
		if owner != "" {
			name = owner + "." + name
		}
	case "function_definition":
		if owner != "" {
			kind = model.KindMethod
			name = owner + "." + name
		} else {
			kind = model.KindFunction
		}
	default:
		return nil
	}

	return &Symbol{
		Record: model.SymbolRecord{
			ID:        model.MakeSymbolID(p.project, path, kind, name),
			Kind:      kind,
			Span:      model.Span{StartLine: startLine(n), EndLine: endLine(n)},
			Signature: strings.TrimSuffix(signatureOf(n, src), ":"),
			Doc:       pythonDocstring(n, src),
			Exported:  !strings.HasPrefix(nodeText(nameNode, src), "_"),
		},
		Body:      nodeText(n, src),
		Extends:   extends,
		startByte: n.StartByte(),
		endByte:   n.EndByte(),
	}
}

// pythonDocstring returns a definition's leading docstring, if present.
func pythonDocstring(def *sitter.Node, src []byte) string {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	doc := strings.Trim(nodeText(str, src), "\"' \n")
	doc = strings.TrimSpace(doc)
	if len(doc) > 400 {
		doc = doc[:400]
	}
	return doc
}

// pythonDecorators collects decorator names and any route declarations among
// them. Recognized routes: @x.get("/p") style per-method decorators and
// @x.route("/p", methods=[...]).
func pythonDecorators(n *sitter.Node, src []byte) ([]string, []model.RouteDecl) {
	var names []string
	var routes []model.RouteDecl

	eachChild(n, func(child *sitter.Node) {
		if child.Type() != "decorator" {
			return
		}
		text := strings.TrimPrefix(nodeText(child, src), "@")
		if i := strings.IndexByte(text, '('); i >= 0 {
			names = append(names, text[:i])
		} else {
			names = append(names, text)
		}

		call := child.NamedChild(0)
		if call == nil || call.Type() != "call" {
			return
		}
		fn := call.ChildByFieldName("function")
		if fn == nil || fn.Type() != "attribute" {
			return
		}
		attr := strings.ToLower(nodeText(fn.ChildByFieldName("attribute"), src))
		args := call.ChildByFieldName("arguments")
		pathArg := firstStringArg(args, src)
		if pathArg == "" {
			return
		}

		if _, ok := httpMethodNames[attr]; ok {
			routes = append(routes, model.RouteDecl{
				Method:      strings.ToUpper(attr),
				PathPattern: pathArg,
				Framework:   model.FrameworkFastAPI,
			})
			return
		}
		if attr == "route" {
			methods := routeMethodsKwarg(args, src)
			if len(methods) == 0 {
				methods = []string{"GET"}
			}
			for _, m := range methods {
				routes = append(routes, model.RouteDecl{
					Method:      m,
					PathPattern: pathArg,
					Framework:   model.FrameworkFlask,
				})
			}
		}
	})

	return names, routes
}

// firstStringArg returns the unquoted first positional string argument of a
// call's argument list.
func firstStringArg(args *sitter.Node, src []byte) string {
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "comment" {
			continue
		}
		// Only a literal first positional argument counts; f-strings and
		// expressions are skipped.
		if text := nodeText(arg, src); arg.Type() == "string" {
			if q := strings.IndexAny(text, "\"'"); q > 0 && strings.ContainsAny(text[:q], "fF") {
				return ""
			}
		}
		return stringLiteralValue(arg, src)
	}
	return ""
}

// routeMethodsKwarg extracts methods=["GET", "POST"] from a route decorator.
func routeMethodsKwarg(args *sitter.Node, src []byte) []string {
	if args == nil {
		return nil
	}
	var methods []string
	eachChild(args, func(arg *sitter.Node) {
		if arg.Type() != "keyword_argument" {
			return
		}
		if nodeText(arg.ChildByFieldName("name"), src) != "methods" {
			return
		}
		value := arg.ChildByFieldName("value")
		if value == nil || value.Type() != "list" {
			return
		}
		eachChild(value, func(elt *sitter.Node) {
			if v := stringLiteralValue(elt, src); v != "" {
				methods = append(methods, strings.ToUpper(v))
			}
		})
	})
	return methods
}

// pythonConstant recognizes module-level UPPER_CASE assignments.
func pythonConstant(p *Parser, path string, stmt *sitter.Node, src []byte) *Symbol {
	if stmt.NamedChildCount() == 0 {
		return nil
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" {
		return nil
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return nil
	}
	name := nodeText(left, src)
	if name != strings.ToUpper(name) || name == "_" {
		return nil
	}

	return &Symbol{
		Record: model.SymbolRecord{
			ID:        model.MakeSymbolID(p.project, path, model.KindConstant, name),
			Kind:      model.KindConstant,
			Span:      model.Span{StartLine: startLine(stmt), EndLine: endLine(stmt)},
			Signature: signatureOf(stmt, src),
			Exported:  !strings.HasPrefix(name, "_"),
		},
		Body:      nodeText(stmt, src),
		startByte: stmt.StartByte(),
		endByte:   stmt.EndByte(),
	}
}

// pythonImports converts an import statement node into Import entries.
func pythonImports(n *sitter.Node, src []byte) []model.Import {
	var imports []model.Import

	switch n.Type() {
	case "import_statement":
		eachChild(n, func(child *sitter.Node) {
			switch child.Type() {
			case "dotted_name":
				mod := nodeText(child, src)
				imports = append(imports, model.Import{
					Module: mod,
					Names:  []string{mod},
					Line:   startLine(n),
				})
			case "aliased_import":
				mod := nodeText(child.ChildByFieldName("name"), src)
				alias := nodeText(child.ChildByFieldName("alias"), src)
				imports = append(imports, model.Import{
					Module: mod,
					Alias:  alias,
					Names:  []string{alias},
					Line:   startLine(n),
				})
			}
		})

	case "import_from_statement":
		module := nodeText(n.ChildByFieldName("module_name"), src)
		var names []string
		eachChild(n, func(child *sitter.Node) {
			switch child.Type() {
			case "dotted_name":
				if t := nodeText(child, src); t != module {
					names = append(names, t)
				}
			case "aliased_import":
				if alias := nodeText(child.ChildByFieldName("alias"), src); alias != "" {
					names = append(names, alias)
				}
			}
		})
		imports = append(imports, model.Import{
			Module: module,
			Names:  names,
			Line:   startLine(n),
		})
	}

	return imports
}
