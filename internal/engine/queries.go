package engine

import (
	"fmt"
	"strings"

	"github.com/flytohub/flyto-indexer/internal/apis"
	"github.com/flytohub/flyto-indexer/internal/errors"
	"github.com/flytohub/flyto-indexer/internal/graph"
	"github.com/flytohub/flyto-indexer/internal/model"
	"github.com/flytohub/flyto-indexer/internal/search"
	"github.com/flytohub/flyto-indexer/internal/session"
)

// All queries are pure reads against a snapshot and are safe under a
// concurrent reindex.

// Impact returns the reverse closure of a symbol up to depth. depth <= 0
// selects the configured default.
func (e *Engine) Impact(symbolID string, depth int) (*graph.ImpactResult, error) {
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	if depth <= 0 {
		depth = e.cfg.Impact.MaxDepth
	}
	id, err := e.resolveSymbolID(snap, symbolID)
	if err != nil {
		return nil, err
	}
	return snap.Graph.Impact(id, depth)
}

// References returns every inbound reference of a symbol.
func (e *Engine) References(symbolID string) ([]graph.Reference, error) {
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	id, err := e.resolveSymbolID(snap, symbolID)
	if err != nil {
		return nil, err
	}
	return snap.Graph.References(id)
}

// Search ranks symbols against the query. The session tracker, when
// provided, contributes the recency boost and records the query.
func (e *Engine) Search(query string, max int, tracker *session.Tracker) ([]search.Hit, error) {
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = e.cfg.Search.MaxResults
	}

	var boost map[string]float64
	if tracker != nil {
		boost = tracker.BoostWeights()
		tracker.Record(session.EventSearched, query)
	}

	return snap.BM25.Search(query, max, boost, e.cfg.Search.BoostAlpha), nil
}

// FileInfo returns the record of one workspace file.
func (e *Engine) FileInfo(path string) (*model.FileRecord, error) {
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	record := snap.Graph.FileInfo(path)
	if record == nil {
		return nil, errors.New(errors.InputError, fmt.Sprintf("unknown file %q", path))
	}
	return record, nil
}

// APIs returns every route with its joined callers.
func (e *Engine) APIs() ([]apis.JoinedRoute, error) {
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Joined, nil
}

// resolveSymbolID accepts a full SymbolID, a project-less short form
// (path:kind:name), or a bare symbol name that matches exactly one symbol.
func (e *Engine) resolveSymbolID(snap *Snapshot, raw string) (model.SymbolID, error) {
	id := model.SymbolID(raw)
	if _, ok := snap.Graph.Symbols[id]; ok {
		return id, nil
	}

	// Short form: prepend each project name.
	if strings.Contains(raw, ":") {
		for _, proj := range snap.Graph.Projects {
			full := model.SymbolID(proj.Name + ":" + raw)
			if _, ok := snap.Graph.Symbols[full]; ok {
				return full, nil
			}
		}
		// Parse errors surface as malformed, not unknown.
		if _, _, _, _, err := id.Parse(); err != nil {
			return "", errors.Wrap(errors.MalformedSymbolID, "resolving symbol", err)
		}
		return id, nil
	}

	// Bare name: unique suffix match.
	var matches []model.SymbolID
	for sid := range snap.Graph.Symbols {
		if strings.HasSuffix(string(sid), ":"+raw) {
			matches = append(matches, sid)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", errors.New(errors.SymbolNotFound, fmt.Sprintf("unknown symbol %q", raw))
	default:
		return "", errors.New(errors.SymbolNotFound,
			fmt.Sprintf("symbol name %q is ambiguous (%d matches); use the full id", raw, len(matches)))
	}
}
