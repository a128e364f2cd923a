package search

import (
	"regexp"
	"strings"
)

var (
	wordPattern = regexp.MustCompile(`\w+`)
	// camelPattern marks camelCase and PascalCase boundaries:
	// "useAuthToken" -> use|Auth|Token, "HTTPServer" -> HTTP|Server
	camelPattern = regexp.MustCompile(`([a-z0-9])([A-Z])|([A-Z])([A-Z][a-z])`)
	// separatorPattern splits snake_case, kebab-case, and path-ish chains
	separatorPattern = regexp.MustCompile(`[_\-./:\\]+`)
)

// Tokenize splits text into lowercased search tokens: on whitespace, then on
// camelCase boundaries, then on separators. Single characters are dropped.
func Tokenize(text string) []string {
	var tokens []string
	for _, word := range wordPattern.FindAllString(text, -1) {
		marked := camelPattern.ReplaceAllString(word, "$1$3\x00$2$4")
		// Boundaries can nest ("ABCDef"), so run the marker twice
		marked = camelPattern.ReplaceAllString(marked, "$1$3\x00$2$4")
		for _, part := range strings.Split(marked, "\x00") {
			for _, sub := range separatorPattern.Split(part, -1) {
				if len(sub) >= 2 {
					tokens = append(tokens, strings.ToLower(sub))
				}
			}
		}
	}
	return tokens
}
