package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/flytohub/flyto-indexer/internal/lang"
)

// sitterLanguage returns the tree-sitter grammar for a language.
func sitterLanguage(l lang.Language) (*sitter.Language, error) {
	switch l {
	case lang.Python:
		return python.GetLanguage(), nil
	case lang.TypeScript, lang.Vue:
		return typescript.GetLanguage(), nil
	case lang.JavaScript:
		return javascript.GetLanguage(), nil
	case lang.Go:
		return golang.GetLanguage(), nil
	case lang.Rust:
		return rust.GetLanguage(), nil
	case lang.Java:
		return java.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("no grammar for language %q", l)
	}
}

// parseTree parses source with the grammar for l. The context deadline is the
// per-file parse timeout.
func parseTree(ctx context.Context, src []byte, l lang.Language) (*sitter.Tree, error) {
	grammar, err := sitterLanguage(l)
	if err != nil {
		return nil, err
	}
	p := sitter.NewParser()
	p.SetLanguage(grammar)
	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return tree, nil
}

// nodeText returns the source text of a node.
func nodeText(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

// startLine and endLine are 1-indexed.
func startLine(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }
func endLine(n *sitter.Node) int   { return int(n.EndPoint().Row) + 1 }

// eachChild invokes fn for every named child of n.
func eachChild(n *sitter.Node, fn func(child *sitter.Node)) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		fn(n.NamedChild(i))
	}
}

// walkNodes visits every node in the tree, depth first. Returning false from
// fn prunes the subtree.
func walkNodes(n *sitter.Node, fn func(node *sitter.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walkNodes(n.Child(i), fn)
	}
}

// signatureOf extracts the first line of a declaration up to the opening
// brace, trimmed. Long single-line declarations are truncated.
func signatureOf(n *sitter.Node, src []byte) string {
	text := src[n.StartByte():n.EndByte()]
	for i, b := range text {
		if b == '\n' || b == '{' {
			return strings.TrimSpace(string(text[:i]))
		}
	}
	if len(text) > 200 {
		return strings.TrimSpace(string(text[:200])) + "..."
	}
	return strings.TrimSpace(string(text))
}

// docCommentAbove collects the contiguous comment block immediately above a
// declaration, cleaned of comment markers. Returns "" when there is none.
// A declaration wrapped in an export or const/let/var statement is looked up
// from its outermost wrapper, which is where the comment sits.
func docCommentAbove(n *sitter.Node, src []byte) string {
	for n.PrevNamedSibling() == nil && n.Parent() != nil {
		switch n.Parent().Type() {
		case "export_statement", "lexical_declaration", "variable_declaration":
			n = n.Parent()
			continue
		}
		break
	}
	prev := n.PrevNamedSibling()
	var parts []string
	for prev != nil && strings.Contains(prev.Type(), "comment") {
		// Only adjacent comments count as documentation
		if startLine(n)-endLine(prev) > 1+len(parts) {
			break
		}
		parts = append([]string{cleanComment(nodeText(prev, src))}, parts...)
		prev = prev.PrevNamedSibling()
	}
	doc := strings.TrimSpace(strings.Join(parts, " "))
	if len(doc) > 400 {
		doc = doc[:400]
	}
	return doc
}

// cleanComment strips comment markers from a raw comment.
func cleanComment(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "/**")
	raw = strings.TrimPrefix(raw, "/*")
	raw = strings.TrimSuffix(raw, "*/")
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "///")
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "#")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}

// stringLiteralValue unquotes a string-literal node, or returns "" when the
// node is not a plain string literal.
func stringLiteralValue(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "string", "string_literal", "interpreted_string_literal", "raw_string_literal", "template_string":
		text := nodeText(n, src)
		return strings.Trim(text, "\"'`")
	}
	return ""
}

// scrub returns a copy of src with every comment and string-literal byte
// replaced by spaces (newlines preserved), so the identifier sweep cannot
// match inside them.
func scrub(root *sitter.Node, src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	walkNodes(root, func(n *sitter.Node) bool {
		t := n.Type()
		if strings.Contains(t, "comment") || strings.Contains(t, "string") {
			for i := n.StartByte(); i < n.EndByte() && int(i) < len(out); i++ {
				if out[i] != '\n' {
					out[i] = ' '
				}
			}
			return false
		}
		return true
	})
	return out
}
