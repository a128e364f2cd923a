package parser

import (
	"context"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/flytohub/flyto-indexer/internal/lang"
	"github.com/flytohub/flyto-indexer/internal/model"
)

// extractGo extracts top-level funcs, methods with their receiver type,
// struct and interface types, package-level consts, and import blocks.
func extractGo(ctx context.Context, p *Parser, path string, src []byte, res *Result) error {
	tree, err := parseTree(ctx, src, lang.Go)
	if err != nil {
		return err
	}
	defer tree.Close()
	root := tree.RootNode()
	res.scrubbed = scrub(root, src)

	eachChild(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration":
			name := nodeText(n.ChildByFieldName("name"), src)
			if name == "" {
				return
			}
			res.Symbols = append(res.Symbols, goSymbol(p, path, n, src, model.KindFunction, name))

		case "method_declaration":
			name := nodeText(n.ChildByFieldName("name"), src)
			owner := goReceiverType(n, src)
			if name == "" {
				return
			}
			if owner != "" {
				name = owner + "." + name
			}
			res.Symbols = append(res.Symbols, goSymbol(p, path, n, src, model.KindMethod, name))

		case "type_declaration":
			eachChild(n, func(spec *sitter.Node) {
				if spec.Type() != "type_spec" {
					return
				}
				name := nodeText(spec.ChildByFieldName("name"), src)
				if name == "" {
					return
				}
				kind := model.KindType
				if typeNode := spec.ChildByFieldName("type"); typeNode != nil {
					switch typeNode.Type() {
					case "struct_type":
						kind = model.KindStruct
					case "interface_type":
						kind = model.KindInterface
					}
				}
				sym := goSymbol(p, path, n, src, kind, name)
				res.Symbols = append(res.Symbols, sym)
			})

		case "const_declaration":
			eachChild(n, func(spec *sitter.Node) {
				if spec.Type() != "const_spec" {
					return
				}
				if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
					name := nodeText(nameNode, src)
					res.Symbols = append(res.Symbols, goSymbol(p, path, spec, src, model.KindConstant, name))
				}
			})

		case "import_declaration":
			walkNodes(n, func(node *sitter.Node) bool {
				if node.Type() != "import_spec" {
					return true
				}
				module := stringLiteralValue(node.ChildByFieldName("path"), src)
				if module == "" {
					return false
				}
				alias := nodeText(node.ChildByFieldName("name"), src)
				name := alias
				if name == "" {
					// Default package name is the last path segment
					name = module[strings.LastIndexByte(module, '/')+1:]
				}
				res.Imports = append(res.Imports, model.Import{
					Module: module,
					Alias:  alias,
					Names:  []string{name},
					Line:   startLine(node),
				})
				return false
			})
		}
	})

	return nil
}

func goSymbol(p *Parser, path string, n *sitter.Node, src []byte, kind model.Kind, name string) Symbol {
	short := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		short = name[i+1:]
	}
	exported := short != "" && unicode.IsUpper(rune(short[0]))

	return Symbol{
		Record: model.SymbolRecord{
			ID:        model.MakeSymbolID(p.project, path, kind, name),
			Kind:      kind,
			Span:      model.Span{StartLine: startLine(n), EndLine: endLine(n)},
			Signature: signatureOf(n, src),
			Doc:       docCommentAbove(n, src),
			Exported:  exported,
		},
		Body:      nodeText(n, src),
		startByte: n.StartByte(),
		endByte:   n.EndByte(),
	}
}

// goReceiverType extracts T from `func (r *T) Name(...)`.
func goReceiverType(n *sitter.Node, src []byte) string {
	recv := n.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	var owner string
	walkNodes(recv, func(node *sitter.Node) bool {
		if node.Type() == "type_identifier" {
			owner = nodeText(node, src)
			return false
		}
		return true
	})
	return owner
}
