package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/flytohub/flyto-indexer/internal/lang"
	"github.com/flytohub/flyto-indexer/internal/model"
)

var scriptBlockPattern = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)

// extractVue treats the <script> block of a single-file component as
// TypeScript and additionally emits one component symbol named after the
// file. Bytes outside the script block are blanked (newlines preserved) so
// every extracted span lines up with the original file.
func extractVue(ctx context.Context, p *Parser, path string, src []byte, res *Result) error {
	component := Symbol{
		Record: model.SymbolRecord{
			ID:        model.MakeSymbolID(p.project, path, model.KindComponent, moduleName(path)),
			Kind:      model.KindComponent,
			Span:      model.Span{StartLine: 1, EndLine: strings.Count(string(src), "\n") + 1},
			Signature: "<" + moduleName(path) + ">",
			Exported:  true,
		},
		Body:      string(src),
		startByte: 0,
		endByte:   uint32(len(src)),
	}
	res.Symbols = append(res.Symbols, component)

	loc := scriptBlockPattern.FindSubmatchIndex(src)
	if loc == nil {
		res.scrubbed = blankAll(src)
		return nil
	}
	scriptStart, scriptEnd := loc[2], loc[3]

	scriptOnly := blankOutside(src, scriptStart, scriptEnd)

	tree, err := parseTree(ctx, scriptOnly, lang.Vue)
	if err != nil {
		return err
	}
	defer tree.Close()
	root := tree.RootNode()
	res.scrubbed = scrub(root, scriptOnly)

	ts := &tsExtractor{p: p, path: path, src: scriptOnly, res: res}
	ts.visit(root, false, "", 0)
	ts.collectCallSites(root, 0)
	return nil
}

// blankOutside replaces every byte outside [start,end) with spaces, keeping
// newlines so line numbers survive.
func blankOutside(src []byte, start, end int) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	for i := range out {
		if i >= start && i < end {
			continue
		}
		if out[i] != '\n' {
			out[i] = ' '
		}
	}
	return out
}

// blankAll blanks the entire source, preserving newlines.
func blankAll(src []byte) []byte {
	return blankOutside(src, 0, 0)
}
