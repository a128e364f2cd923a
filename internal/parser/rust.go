package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/flytohub/flyto-indexer/internal/lang"
	"github.com/flytohub/flyto-indexer/internal/model"
)

// extractRust extracts fns, structs, enums, traits, modules, impl-block
// methods attributed to the impl type, and use declarations.
func extractRust(ctx context.Context, p *Parser, path string, src []byte, res *Result) error {
	tree, err := parseTree(ctx, src, lang.Rust)
	if err != nil {
		return err
	}
	defer tree.Close()
	root := tree.RootNode()
	res.scrubbed = scrub(root, src)

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "function_item":
			name := nodeText(n.ChildByFieldName("name"), src)
			if name != "" {
				res.Symbols = append(res.Symbols, rustSymbol(p, path, n, src, model.KindFunction, name))
			}
			return

		case "struct_item":
			addRustNamed(p, path, n, src, model.KindStruct, res)
			return

		case "enum_item":
			addRustNamed(p, path, n, src, model.KindEnum, res)
			return

		case "trait_item":
			addRustNamed(p, path, n, src, model.KindTrait, res)
			// trait methods keep the trait as owner
			if body := n.ChildByFieldName("body"); body != nil {
				owner := nodeText(n.ChildByFieldName("name"), src)
				eachChild(body, func(member *sitter.Node) {
					if member.Type() != "function_item" {
						return
					}
					mname := nodeText(member.ChildByFieldName("name"), src)
					if mname != "" {
						res.Symbols = append(res.Symbols,
							rustSymbol(p, path, member, src, model.KindMethod, owner+"."+mname))
					}
				})
			}
			return

		case "mod_item":
			name := nodeText(n.ChildByFieldName("name"), src)
			if name != "" {
				res.Symbols = append(res.Symbols, rustSymbol(p, path, n, src, model.KindModule, name))
			}
			if body := n.ChildByFieldName("body"); body != nil {
				eachChild(body, visit)
			}
			return

		case "impl_item":
			owner := implTypeName(n, src)
			trait := nodeText(n.ChildByFieldName("trait"), src)
			if body := n.ChildByFieldName("body"); body != nil && owner != "" {
				eachChild(body, func(member *sitter.Node) {
					if member.Type() != "function_item" {
						return
					}
					mname := nodeText(member.ChildByFieldName("name"), src)
					if mname == "" {
						return
					}
					sym := rustSymbol(p, path, member, src, model.KindMethod, owner+"."+mname)
					if trait != "" {
						sym.Extends = append(sym.Extends, trait)
					}
					res.Symbols = append(res.Symbols, sym)
				})
			}
			return

		case "use_declaration":
			if imp, ok := rustUse(n, src); ok {
				res.Imports = append(res.Imports, imp)
			}
			return
		}

		eachChild(n, visit)
	}
	visit(root)

	return nil
}

func addRustNamed(p *Parser, path string, n *sitter.Node, src []byte, kind model.Kind, res *Result) {
	name := nodeText(n.ChildByFieldName("name"), src)
	if name != "" {
		res.Symbols = append(res.Symbols, rustSymbol(p, path, n, src, kind, name))
	}
}

func rustSymbol(p *Parser, path string, n *sitter.Node, src []byte, kind model.Kind, name string) Symbol {
	return Symbol{
		Record: model.SymbolRecord{
			ID:        model.MakeSymbolID(p.project, path, kind, name),
			Kind:      kind,
			Span:      model.Span{StartLine: startLine(n), EndLine: endLine(n)},
			Signature: signatureOf(n, src),
			Doc:       docCommentAbove(n, src),
			Exported:  rustIsPub(n, src),
		},
		Body:      nodeText(n, src),
		startByte: n.StartByte(),
		endByte:   n.EndByte(),
	}
}

// rustIsPub reports whether an item carries a pub visibility modifier.
func rustIsPub(n *sitter.Node, src []byte) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() == "visibility_modifier" {
			return strings.HasPrefix(nodeText(child, src), "pub")
		}
	}
	return false
}

// implTypeName extracts T from `impl T { .. }` or `impl Trait for T { .. }`.
func implTypeName(n *sitter.Node, src []byte) string {
	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		name := nodeText(typeNode, src)
		// Drop generic parameters: Foo<T> -> Foo
		if i := strings.IndexByte(name, '<'); i >= 0 {
			name = name[:i]
		}
		return name
	}
	return ""
}

// rustUse converts `use a::b::{c, d};` into one Import entry.
func rustUse(n *sitter.Node, src []byte) (model.Import, bool) {
	text := strings.TrimSuffix(strings.TrimSpace(nodeText(n, src)), ";")
	text = strings.TrimPrefix(text, "pub ")
	text = strings.TrimPrefix(text, "use ")
	if text == "" {
		return model.Import{}, false
	}

	imp := model.Import{Line: startLine(n)}
	if i := strings.Index(text, "::{"); i >= 0 {
		imp.Module = text[:i]
		inner := strings.TrimSuffix(text[i+3:], "}")
		for _, part := range strings.Split(inner, ",") {
			part = strings.TrimSpace(part)
			if part == "" || part == "*" {
				continue
			}
			if j := strings.Index(part, " as "); j >= 0 {
				part = strings.TrimSpace(part[j+4:])
			}
			if k := strings.LastIndex(part, "::"); k >= 0 {
				part = part[k+2:]
			}
			imp.Names = append(imp.Names, part)
		}
		return imp, true
	}

	if j := strings.Index(text, " as "); j >= 0 {
		imp.Alias = strings.TrimSpace(text[j+4:])
		text = strings.TrimSpace(text[:j])
		imp.Module = text
		imp.Names = []string{imp.Alias}
		return imp, true
	}

	imp.Module = text
	if k := strings.LastIndex(text, "::"); k >= 0 {
		imp.Names = []string{text[k+2:]}
		imp.Module = text[:k]
	} else {
		imp.Names = []string{text}
	}
	return imp, true
}
