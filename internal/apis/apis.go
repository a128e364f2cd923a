// Package apis joins backend route declarations to frontend HTTP call sites
// by method and normalized path, producing the cross-language routes_to
// edges.
package apis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/flytohub/flyto-indexer/internal/model"
)

// placeholderPattern collapses {param}, :param, ${expr}, and <param> URL
// segments to a single sentinel.
var placeholderPattern = regexp.MustCompile(`\{[^/}]*\}|\$\{[^}]*\}|:([A-Za-z_][A-Za-z0-9_]*)|<[^/>]*>`)

// Normalize lowercases the method, collapses path placeholders to "*", and
// strips trailing slashes.
func Normalize(method, path string) (string, string) {
	normPath := placeholderPattern.ReplaceAllString(path, "*")
	normPath = strings.TrimRight(normPath, "/")
	if normPath == "" {
		normPath = "/"
	}
	return strings.ToLower(method), normPath
}

// JoinedRoute is one route declaration with every call site that reaches it.
type JoinedRoute struct {
	Route   model.RouteDecl  `json:"route"`
	Callers []JoinedCaller   `json:"callers"`
}

// JoinedCaller is one matched call site and the join confidence.
type JoinedCaller struct {
	Call       model.CallSite   `json:"call"`
	Confidence model.Confidence `json:"confidence"`
}

// Join matches call sites against route declarations:
//
//   - exact:     method and literal path equal without any normalization
//   - likely:    normalized paths equal and neither side needed placeholder
//     collapse
//   - heuristic: normalized paths equal only after collapsing placeholders
//
// Unmatched routes appear with empty Callers; unmatched calls are dropped.
func Join(routes []model.RouteDecl, calls []model.CallSite) []JoinedRoute {
	type key struct{ method, path string }

	index := make(map[key][]int, len(routes))
	joined := make([]JoinedRoute, len(routes))
	for i, r := range routes {
		joined[i] = JoinedRoute{Route: r, Callers: []JoinedCaller{}}
		m, p := Normalize(r.Method, r.PathPattern)
		index[key{m, p}] = append(index[key{m, p}], i)
	}

	for _, c := range calls {
		m, p := Normalize(c.Method, collapseCallPlaceholders(c.URLLiteral))
		for _, i := range index[key{m, p}] {
			r := joined[i].Route
			confidence := model.ConfidenceHeuristic
			switch {
			case r.Method == c.Method && r.PathPattern == c.URLLiteral:
				confidence = model.ConfidenceExact
			case !strings.Contains(p, "*"):
				confidence = model.ConfidenceLikely
			}
			joined[i].Callers = append(joined[i].Callers, JoinedCaller{Call: c, Confidence: confidence})
		}
	}

	for i := range joined {
		callers := joined[i].Callers
		sort.Slice(callers, func(a, b int) bool {
			if callers[a].Call.File != callers[b].Call.File {
				return callers[a].Call.File < callers[b].Call.File
			}
			return callers[a].Call.Line < callers[b].Call.Line
		})
	}

	sort.Slice(joined, func(a, b int) bool {
		ra, rb := joined[a].Route, joined[b].Route
		if ra.PathPattern != rb.PathPattern {
			return ra.PathPattern < rb.PathPattern
		}
		if ra.Method != rb.Method {
			return ra.Method < rb.Method
		}
		return ra.HandlerID < rb.HandlerID
	})
	return joined
}

// collapseCallPlaceholders maps concrete URL segments that carry values
// (numbers, interpolations) onto the route placeholder sentinel, so
// fetch("/api/users/42") can meet "/api/users/{id}".
var numericSegment = regexp.MustCompile(`^[0-9]+$`)

func collapseCallPlaceholders(url string) string {
	segments := strings.Split(url, "/")
	for i, seg := range segments {
		if numericSegment.MatchString(seg) || strings.Contains(seg, "${") {
			segments[i] = "*"
		}
	}
	return strings.Join(segments, "/")
}

// Edges converts a join result into routes_to edges from each call site's
// containing symbol to the route handler.
func Edges(joined []JoinedRoute) []model.Edge {
	var edges []model.Edge
	seen := map[model.Edge]struct{}{}
	for _, jr := range joined {
		if jr.Route.HandlerID == "" {
			continue
		}
		for _, caller := range jr.Callers {
			if caller.Call.ContainingSymbol == "" {
				continue
			}
			e := model.Edge{
				From:       caller.Call.ContainingSymbol,
				To:         jr.Route.HandlerID,
				Kind:       model.EdgeRoutesTo,
				Confidence: caller.Confidence,
			}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}
