package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/flytohub/flyto-indexer/internal/lang"
	"github.com/flytohub/flyto-indexer/internal/model"
)

// springRouteAnnotations maps Spring MVC annotations to HTTP methods.
var springRouteAnnotations = map[string]string{
	"GetMapping":     "GET",
	"PostMapping":    "POST",
	"PutMapping":     "PUT",
	"DeleteMapping":  "DELETE",
	"PatchMapping":   "PATCH",
	"RequestMapping": "GET",
}

// extractJava extracts classes, interfaces, enums, methods, annotations, and
// imports. Spring route annotations become route declarations.
func extractJava(ctx context.Context, p *Parser, path string, src []byte, res *Result) error {
	tree, err := parseTree(ctx, src, lang.Java)
	if err != nil {
		return err
	}
	defer tree.Close()
	root := tree.RootNode()
	res.scrubbed = scrub(root, src)

	var visit func(n *sitter.Node, owner string)
	visit = func(n *sitter.Node, owner string) {
		switch n.Type() {
		case "import_declaration":
			text := strings.TrimSuffix(strings.TrimSpace(nodeText(n, src)), ";")
			text = strings.TrimPrefix(text, "import ")
			text = strings.TrimPrefix(text, "static ")
			if text == "" {
				return
			}
			name := text
			if i := strings.LastIndexByte(text, '.'); i >= 0 {
				name = text[i+1:]
			}
			res.Imports = append(res.Imports, model.Import{
				Module: text,
				Names:  []string{name},
				Line:   startLine(n),
			})
			return

		case "class_declaration", "interface_declaration", "enum_declaration":
			name := nodeText(n.ChildByFieldName("name"), src)
			if name == "" {
				return
			}
			kind := model.KindClass
			switch n.Type() {
			case "interface_declaration":
				kind = model.KindInterface
			case "enum_declaration":
				kind = model.KindEnum
			}

			sym := javaSymbol(p, path, n, src, kind, name)
			if super := n.ChildByFieldName("superclass"); super != nil {
				base := strings.TrimSpace(strings.TrimPrefix(nodeText(super, src), "extends"))
				if base != "" {
					sym.Extends = append(sym.Extends, base)
				}
			}
			if ifaces := n.ChildByFieldName("interfaces"); ifaces != nil {
				walkNodes(ifaces, func(node *sitter.Node) bool {
					if node.Type() == "type_identifier" {
						sym.Extends = append(sym.Extends, nodeText(node, src))
					}
					return true
				})
			}
			res.Symbols = append(res.Symbols, *sym)

			if body := n.ChildByFieldName("body"); body != nil {
				eachChild(body, func(member *sitter.Node) { visit(member, name) })
			}
			return

		case "method_declaration":
			name := nodeText(n.ChildByFieldName("name"), src)
			if name == "" {
				return
			}
			full := name
			if owner != "" {
				full = owner + "." + full
			}
			sym := javaSymbol(p, path, n, src, model.KindMethod, full)
			annotations, routes := javaAnnotations(n, src)
			sym.Record.Decorators = annotations
			res.Symbols = append(res.Symbols, *sym)
			for _, r := range routes {
				r.HandlerID = sym.Record.ID
				res.Routes = append(res.Routes, r)
			}
			return
		}

		eachChild(n, func(child *sitter.Node) { visit(child, owner) })
	}
	visit(root, "")

	return nil
}

func javaSymbol(p *Parser, path string, n *sitter.Node, src []byte, kind model.Kind, name string) *Symbol {
	return &Symbol{
		Record: model.SymbolRecord{
			ID:        model.MakeSymbolID(p.project, path, kind, name),
			Kind:      kind,
			Span:      model.Span{StartLine: startLine(n), EndLine: endLine(n)},
			Signature: signatureOf(n, src),
			Doc:       docCommentAbove(n, src),
			Exported:  strings.Contains(javaModifiers(n, src), "public"),
		},
		Body:      nodeText(n, src),
		startByte: n.StartByte(),
		endByte:   n.EndByte(),
	}
}

func javaModifiers(n *sitter.Node, src []byte) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() == "modifiers" {
			return nodeText(child, src)
		}
	}
	return ""
}

// javaAnnotations returns the annotation names on a declaration and any
// Spring route declarations among them.
func javaAnnotations(n *sitter.Node, src []byte) ([]string, []model.RouteDecl) {
	var names []string
	var routes []model.RouteDecl

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() != "modifiers" {
			continue
		}
		eachChild(child, func(mod *sitter.Node) {
			switch mod.Type() {
			case "marker_annotation", "annotation":
				name := nodeText(mod.ChildByFieldName("name"), src)
				if name == "" {
					return
				}
				names = append(names, name)

				method, ok := springRouteAnnotations[name]
				if !ok {
					return
				}
				pattern := javaAnnotationPath(mod, src)
				if pattern == "" {
					return
				}
				routes = append(routes, model.RouteDecl{
					Method:      method,
					PathPattern: pattern,
					Framework:   model.FrameworkOther,
				})
			}
		})
	}
	return names, routes
}

// javaAnnotationPath pulls the path out of @GetMapping("/x") or
// @RequestMapping(value = "/x").
func javaAnnotationPath(annotation *sitter.Node, src []byte) string {
	args := annotation.ChildByFieldName("arguments")
	if args == nil {
		return ""
	}
	var path string
	walkNodes(args, func(node *sitter.Node) bool {
		if path != "" {
			return false
		}
		if v := stringLiteralValue(node, src); v != "" {
			path = v
			return false
		}
		return true
	})
	return path
}
