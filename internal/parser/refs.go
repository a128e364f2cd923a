package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/flytohub/flyto-indexer/internal/lang"
)

// identPattern matches bare identifiers and dotted chains of length <= 3.
var identPattern = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*(?:\.[A-Za-z_$][A-Za-z0-9_$]*){0,2}`)

// reservedWords filters language keywords out of the identifier sweep.
var reservedWords = map[lang.Language]map[string]struct{}{
	lang.Python: wordSet(
		"False", "None", "True", "and", "as", "assert", "async", "await",
		"break", "class", "continue", "def", "del", "elif", "else", "except",
		"finally", "for", "from", "global", "if", "import", "in", "is",
		"lambda", "nonlocal", "not", "or", "pass", "raise", "return", "try",
		"while", "with", "yield", "self", "cls",
	),
	lang.TypeScript: jsWords,
	lang.JavaScript: jsWords,
	lang.Vue:        jsWords,
	lang.Go: wordSet(
		"break", "case", "chan", "const", "continue", "default", "defer",
		"else", "fallthrough", "for", "func", "go", "goto", "if", "import",
		"interface", "map", "package", "range", "return", "select", "struct",
		"switch", "type", "var", "nil", "true", "false", "iota", "append",
		"cap", "close", "copy", "delete", "len", "make", "new", "panic",
		"print", "println", "recover", "error", "string", "int", "int64",
		"int32", "uint", "uint64", "uint32", "byte", "rune", "bool",
		"float64", "float32", "any",
	),
	lang.Rust: wordSet(
		"as", "async", "await", "break", "const", "continue", "crate", "dyn",
		"else", "enum", "extern", "false", "fn", "for", "if", "impl", "in",
		"let", "loop", "match", "mod", "move", "mut", "pub", "ref", "return",
		"self", "Self", "static", "struct", "super", "trait", "true", "type",
		"unsafe", "use", "where", "while", "Some", "None", "Ok", "Err",
		"String", "Vec", "Box", "Option", "Result",
	),
	lang.Java: wordSet(
		"abstract", "assert", "boolean", "break", "byte", "case", "catch",
		"char", "class", "const", "continue", "default", "do", "double",
		"else", "enum", "extends", "final", "finally", "float", "for", "if",
		"implements", "import", "instanceof", "int", "interface", "long",
		"native", "new", "package", "private", "protected", "public",
		"return", "short", "static", "strictfp", "super", "switch",
		"synchronized", "this", "throw", "throws", "transient", "try",
		"void", "volatile", "while", "true", "false", "null", "var",
		"String", "System",
	),
}

var jsWords = wordSet(
	"break", "case", "catch", "class", "const", "continue", "debugger",
	"default", "delete", "do", "else", "export", "extends", "finally",
	"for", "function", "if", "import", "in", "instanceof", "new", "return",
	"super", "switch", "this", "throw", "try", "typeof", "var", "void",
	"while", "with", "yield", "let", "static", "async", "await", "of",
	"true", "false", "null", "undefined", "interface", "type", "enum",
	"implements", "declare", "readonly", "namespace", "from", "keyof",
	"string", "number", "boolean", "object", "unknown", "never", "void",
)

// builtinNames are runtime globals no parser can trace to a definition.
// They are excluded from the sweep in every language.
var builtinNames = wordSet(
	// Python builtins
	"str", "int", "float", "bool", "dict", "list", "tuple", "set",
	"len", "range", "type", "isinstance", "hasattr", "getattr", "setattr",
	"open", "print", "input", "format", "sorted", "filter", "map", "zip",
	"min", "max", "sum", "abs", "round", "enumerate", "reversed", "super",
	// JS builtins
	"console", "window", "document", "Array", "Object", "String", "Number",
	"JSON", "Math", "Date", "Promise", "Error", "Boolean", "Map", "Set",
	"fetch", "setTimeout", "setInterval", "parseInt", "parseFloat", "isNaN",
	"encodeURIComponent", "decodeURIComponent", "require", "module",
	"exports", "process",
	// Vue/React runtime hooks
	"ref", "reactive", "computed", "watch", "watchEffect",
	"onMounted", "onUnmounted", "onBeforeMount", "onBeforeUnmount",
	"useState", "useEffect", "useCallback", "useMemo", "useRef", "useContext",
)

func wordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// sweepRefs scans scrubbed source bytes for identifier references. Names
// whose first segment is a reserved word or runtime builtin are dropped.
func sweepRefs(scrubbed []byte, language lang.Language) []Ref {
	reserved := reservedWords[language]

	var refs []Ref
	seen := make(map[string]struct{})

	locs := identPattern.FindAllIndex(scrubbed, -1)
	line := 1
	prevEnd := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		line += strings.Count(string(scrubbed[prevEnd:start]), "\n")
		prevEnd = start

		name := string(scrubbed[start:end])
		first := name
		if i := strings.IndexByte(name, '.'); i >= 0 {
			first = name[:i]
		}
		if _, ok := reserved[first]; ok {
			continue
		}
		if _, ok := builtinNames[first]; ok {
			continue
		}

		call := false
		for i := end; i < len(scrubbed); i++ {
			if scrubbed[i] == ' ' || scrubbed[i] == '\t' {
				continue
			}
			call = scrubbed[i] == '('
			break
		}

		key := name + "\x00" + strconv.Itoa(line)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		refs = append(refs, Ref{Name: name, Line: line, Call: call, offset: uint32(start)})
	}
	return refs
}

// attributeRefs runs the identifier sweep over the whole file and assigns
// each reference to the innermost symbol whose span contains it. References
// outside every declared symbol belong to the module symbol. A symbol's own
// name occurring at its declaration site is not a self reference.
func attributeRefs(res *Result, src []byte, language lang.Language) {
	scrubbed := res.scrubbed
	if scrubbed == nil {
		scrubbed = src
	}
	refs := sweepRefs(scrubbed, language)
	if len(refs) == 0 {
		return
	}

	// Innermost containment: sort symbols by span size ascending and pick
	// the first match per ref line. The module symbol spans the whole file
	// and therefore always matches last.
	order := make([]int, len(res.Symbols))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		sa := res.Symbols[order[a]]
		sb := res.Symbols[order[b]]
		return (sa.endByte - sa.startByte) < (sb.endByte - sb.startByte)
	})

	for _, ref := range refs {
		byteAt := ref.offset
		for _, idx := range order {
			sym := &res.Symbols[idx]
			if byteAt >= sym.startByte && byteAt < sym.endByte {
				name := sym.Record.ID.Name()
				short := name[strings.LastIndexByte(name, '.')+1:] // method name without owner
				if (ref.Name == name || ref.Name == short) && ref.Line == sym.Record.Span.StartLine {
					break // declaration site, not a reference
				}
				sym.Refs = append(sym.Refs, ref)
				break
			}
		}
	}
}

