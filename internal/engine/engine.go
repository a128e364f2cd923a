// Package engine orchestrates the indexing pipeline — walk, hash, parse,
// reduce, resolve, persist — and serves the query surface against immutable
// snapshots.
package engine

import (
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/flytohub/flyto-indexer/internal/apis"
	"github.com/flytohub/flyto-indexer/internal/config"
	"github.com/flytohub/flyto-indexer/internal/graph"
	"github.com/flytohub/flyto-indexer/internal/logging"
	"github.com/flytohub/flyto-indexer/internal/search"
	"github.com/flytohub/flyto-indexer/internal/session"
	"github.com/flytohub/flyto-indexer/internal/store"
)

// Snapshot is the immutable query view produced by a scan or a load. Queries
// hold a snapshot for their whole execution and never observe a scan in
// progress.
type Snapshot struct {
	Graph  *graph.Graph
	BM25   *search.Index
	Joined []apis.JoinedRoute
}

// Engine ties the pipeline together for one workspace.
type Engine struct {
	root     string
	indexDir string
	cfg      *config.Config
	ws       *config.Workspace
	logger   *logging.Logger

	snapshot atomic.Pointer[Snapshot]

	// parseCount observes how many files were parsed, for tests asserting
	// that unchanged scans perform zero parses.
	parseCount atomic.Int64
}

// New creates an engine rooted at the workspace directory.
func New(root string, cfg *config.Config, ws *config.Workspace, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{
		root:     root,
		indexDir: filepath.Join(root, config.IndexDirName),
		cfg:      cfg,
		ws:       ws,
		logger:   logger,
	}
}

// IndexDir returns the on-disk index directory.
func (e *Engine) IndexDir() string {
	return e.indexDir
}

// ParseCount reports the number of files parsed since the engine was
// created.
func (e *Engine) ParseCount() int64 {
	return e.parseCount.Load()
}

// Snapshot returns the current query view, lazily loading the on-disk index
// on first use. Readers tolerate an absent index (first run): they get an
// empty graph.
func (e *Engine) Snapshot() (*Snapshot, error) {
	if snap := e.snapshot.Load(); snap != nil {
		return snap, nil
	}
	snap, err := e.loadSnapshot()
	if err != nil {
		return nil, err
	}
	e.snapshot.Store(snap)
	return snap, nil
}

// loadSnapshot reads index.json and bm25.json from disk.
func (e *Engine) loadSnapshot() (*Snapshot, error) {
	snap := &Snapshot{Graph: graph.New(), BM25: search.NewIndex(e.cfg.Search.K1, e.cfg.Search.B)}

	if data, ok, err := store.ReadFile(e.indexDir, store.IndexFile); err != nil {
		return nil, err
	} else if ok {
		g, err := graph.Unmarshal(data)
		if err != nil {
			return nil, err
		}
		snap.Graph = g
	}

	if data, ok, err := store.ReadFile(e.indexDir, store.BM25File); err != nil {
		return nil, err
	} else if ok {
		idx, err := search.Load(data)
		if err != nil {
			return nil, err
		}
		snap.BM25 = idx
	}

	snap.Joined = apis.Join(snap.Graph.Routes, snap.Graph.Calls)
	return snap, nil
}

// NewSessionTracker restores the persisted session ring for this workspace.
func (e *Engine) NewSessionTracker() *session.Tracker {
	return session.Restore(e.indexDir,
		e.cfg.Session.BufferSize,
		time.Duration(e.cfg.Session.FlushIntervalMs)*time.Millisecond)
}
