package engine

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flytohub/flyto-indexer/internal/apis"
	"github.com/flytohub/flyto-indexer/internal/errors"
	"github.com/flytohub/flyto-indexer/internal/graph"
	"github.com/flytohub/flyto-indexer/internal/lang"
	"github.com/flytohub/flyto-indexer/internal/manifest"
	"github.com/flytohub/flyto-indexer/internal/model"
	"github.com/flytohub/flyto-indexer/internal/parser"
	"github.com/flytohub/flyto-indexer/internal/search"
	"github.com/flytohub/flyto-indexer/internal/store"
	"github.com/flytohub/flyto-indexer/internal/walker"
)

// Summary reports what one scan did.
type Summary struct {
	Added       int   `json:"added"`
	Modified    int   `json:"modified"`
	Deleted     int   `json:"deleted"`
	ParseErrors int   `json:"parseErrors"`
	DurationMs  int64 `json:"durationMs"`
}

// workspaceFile pairs a discovered file with its owning project.
type workspaceFile struct {
	path     string // workspace-relative
	project  string
	language lang.Language
	hash     string
	content  []byte // populated only for files that need parsing
}

// parsedFile is the immutable bundle a worker hands to the reducer.
type parsedFile struct {
	file   workspaceFile
	result *parser.Result
}

// Scan walks the workspace, re-parses what changed, rebuilds the graph and
// search index, and commits everything atomically. A cancelled scan commits
// nothing. Two concurrent writers are forbidden by the directory lock.
func (e *Engine) Scan(ctx context.Context) (*Summary, error) {
	start := time.Now()

	lock, err := store.AcquireLock(e.indexDir)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	man, err := manifest.Load(filepath.Join(e.indexDir, store.ManifestFile))
	if err != nil {
		return nil, errors.Wrap(errors.IOError, "loading manifest", err)
	}

	files, err := e.discover(ctx)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	current := make(map[string]string, len(files))
	byPath := make(map[string]*workspaceFile, len(files))
	for i := range files {
		current[files[i].path] = files[i].hash
		byPath[files[i].path] = &files[i]
	}

	changes := man.Diff(current)
	e.logger.Info("scan: change detection complete", map[string]interface{}{
		"changes": changes.Summary(),
		"files":   len(files),
	})

	prev, err := e.Snapshot()
	if err != nil {
		return nil, err
	}

	// The new graph starts from the unchanged files' cached records; only
	// changed files are re-parsed.
	g := graph.New()
	g.Projects = e.projects()
	for pth, file := range prev.Graph.Files {
		hash, ok := current[pth]
		if !ok || hash != file.ContentHash {
			continue
		}
		records := make([]*model.SymbolRecord, 0, len(file.Symbols))
		for _, id := range file.Symbols {
			if sym, ok := prev.Graph.Symbols[id]; ok {
				records = append(records, sym)
			}
		}
		g.ApplyFile(file, records)
	}

	parsed, err := e.parseChanged(ctx, g, changes, byPath)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	g.Resolve()
	joined := apis.Join(g.Routes, g.Calls)
	g.AddEdges(apis.Edges(joined))
	g.LanguageCounts()

	if err := g.Verify(); err != nil {
		return nil, err
	}

	bm25 := search.NewIndex(e.cfg.Search.K1, e.cfg.Search.B)
	docs := make(map[model.SymbolID]string, len(g.Symbols))
	for id, sym := range g.Symbols {
		docs[id] = search.DocumentText(sym)
	}
	bm25.Build(docs)

	if err := e.commit(g, bm25, man, current, parsed, changes); err != nil {
		return nil, err
	}

	snap := &Snapshot{Graph: g, BM25: bm25, Joined: joined}
	e.snapshot.Store(snap)

	parseErrors := 0
	for _, file := range g.Files {
		if file.ParseError {
			parseErrors++
		}
	}

	return &Summary{
		Added:       len(changes.Added),
		Modified:    len(changes.Modified),
		Deleted:     len(changes.Deleted),
		ParseErrors: parseErrors,
		DurationMs:  time.Since(start).Milliseconds(),
	}, nil
}

// projects converts the workspace declaration into project records.
func (e *Engine) projects() []model.Project {
	out := make([]model.Project, 0, len(e.ws.Projects))
	for _, p := range e.ws.Projects {
		out = append(out, model.Project{Name: p.Name, Root: p.Root})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// discover walks every project root and hashes each file. Unreadable files
// are skipped; the walk order is workspace-lexicographic.
func (e *Engine) discover(ctx context.Context) ([]workspaceFile, error) {
	opts := walker.DefaultOptions(e.cfg.Scan)
	opts.Cancelled = func() bool { return ctx.Err() != nil }

	var out []workspaceFile
	for _, proj := range e.ws.Projects {
		projRoot := filepath.Join(e.root, filepath.FromSlash(proj.Root))
		var langs []lang.Language
		for _, l := range proj.Languages {
			langs = append(langs, lang.Language(l))
		}
		opts.Languages = langs

		entries, err := walker.Walk(projRoot, opts)
		if err != nil {
			return nil, errors.Wrap(errors.IOError, "walking workspace", err)
		}

		for _, entry := range entries {
			rel := entry.Path
			if proj.Root != "." && proj.Root != "" {
				rel = path.Join(proj.Root, entry.Path)
			}
			content, err := os.ReadFile(filepath.Join(projRoot, filepath.FromSlash(entry.Path)))
			if err != nil {
				e.logger.Warn("scan: unreadable file skipped", map[string]interface{}{
					"path": rel, "error": err.Error(),
				})
				continue
			}
			out = append(out, workspaceFile{
				path:     rel,
				project:  proj.Name,
				language: entry.Language,
				hash:     manifest.HashString(manifest.Hash(content)),
				content:  content,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

// parseChanged runs the parser worker pool over added and modified files. A
// single reducer goroutine owns the graph; workers hand over immutable
// bundles through a bounded channel.
func (e *Engine) parseChanged(ctx context.Context, g *graph.Graph, changes manifest.ChangeSet, byPath map[string]*workspaceFile) ([]parsedFile, error) {
	toParse := changes.AllChanged()
	if len(toParse) == 0 {
		return nil, nil
	}

	workers := e.cfg.Scan.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	timeout := time.Duration(e.cfg.Scan.ParseTimeoutMs) * time.Millisecond

	bundles := make(chan parsedFile, workers*2)

	var workerGroup errgroup.Group
	workerGroup.SetLimit(workers)
	go func() {
		defer close(bundles)
		for _, pth := range toParse {
			file, ok := byPath[pth]
			if !ok || ctx.Err() != nil {
				continue
			}
			workerGroup.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				result := e.parseOne(ctx, file, timeout)
				select {
				case bundles <- parsedFile{file: *file, result: result}:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = workerGroup.Wait()
	}()

	// Reducer: the only writer of g. It finishes the in-flight bundle on
	// cancellation but does not start another.
	var parsed []parsedFile
	for bundle := range bundles {
		e.applyBundle(g, bundle)
		parsed = append(parsed, bundle)
		if ctx.Err() != nil {
			// Keep draining so workers unblock, but apply nothing more.
			for range bundles {
			}
			break
		}
	}

	return parsed, ctx.Err()
}

// parseOne parses a single file under the per-file timeout. Timeouts and
// extractor failures degrade to a parse_error record, never a failed run.
func (e *Engine) parseOne(ctx context.Context, file *workspaceFile, timeout time.Duration) *parser.Result {
	e.parseCount.Add(1)

	parseCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	p := parser.New(file.project)
	result, err := p.ParseFile(parseCtx, file.path, file.language, file.content)
	if err != nil || result == nil {
		result = &parser.Result{
			Path:       file.path,
			Project:    file.project,
			Language:   file.language,
			ParseError: true,
		}
	}
	if result.ParseError {
		e.logger.Warn("scan: file kept with parse error", map[string]interface{}{
			"path": file.path,
		})
	}
	return result
}

// applyBundle converts one parser result into graph records.
func (e *Engine) applyBundle(g *graph.Graph, bundle parsedFile) {
	res := bundle.result

	record := &model.FileRecord{
		Path:        bundle.file.path,
		Project:     bundle.file.project,
		Language:    string(bundle.file.language),
		ContentHash: bundle.file.hash,
		Imports:     res.Imports,
		Routes:      res.Routes,
		Calls:       res.Calls,
		ParseError:  res.ParseError,
	}

	records := make([]*model.SymbolRecord, 0, len(res.Symbols))
	for i := range res.Symbols {
		rec := res.Symbols[i].Record
		record.Symbols = append(record.Symbols, rec.ID)
		records = append(records, &rec)
	}

	g.ApplyFile(record, records)
}

// commit writes content, search, index, and manifest. The manifest goes last:
// a failure before it leaves the previous manifest intact and the next scan
// re-does the work.
func (e *Engine) commit(g *graph.Graph, bm25 *search.Index, man *manifest.Manifest, current map[string]string, parsed []parsedFile, changes manifest.ChangeSet) error {
	var contentRecords []store.ContentRecord
	for _, bundle := range parsed {
		for i := range bundle.result.Symbols {
			sym := &bundle.result.Symbols[i]
			if sym.Body != "" {
				contentRecords = append(contentRecords, store.ContentRecord{
					ID:   sym.Record.ID,
					Body: sym.Body,
				})
			}
		}
	}
	if err := store.AppendContent(e.indexDir, contentRecords); err != nil {
		return errors.Wrap(errors.IOError, "appending content log", err)
	}
	keep := make(map[model.SymbolID]struct{}, len(g.Symbols))
	for id := range g.Symbols {
		keep[id] = struct{}{}
	}
	if err := store.CompactContent(e.indexDir, keep); err != nil {
		return errors.Wrap(errors.IOError, "compacting content log", err)
	}

	bmData, err := bm25.Marshal()
	if err != nil {
		return errors.Wrap(errors.IOError, "marshaling search index", err)
	}
	if err := store.WriteFileAtomic(e.indexDir, store.BM25File, bmData); err != nil {
		return errors.Wrap(errors.IOError, "writing search index", err)
	}

	indexData, err := g.Marshal()
	if err != nil {
		return errors.Wrap(errors.IOError, "marshaling index", err)
	}
	if err := store.WriteFileAtomic(e.indexDir, store.IndexFile, indexData); err != nil {
		return errors.Wrap(errors.IOError, "writing index", err)
	}

	for _, pth := range changes.Deleted {
		man.Remove(pth)
	}
	for pth, file := range g.Files {
		man.Update(pth, current[pth], file.Language, file.Symbols)
	}
	var projectNames []string
	for _, p := range g.Projects {
		projectNames = append(projectNames, p.Name)
	}
	man.Projects = projectNames

	manData, err := man.Marshal()
	if err != nil {
		return errors.Wrap(errors.IOError, "marshaling manifest", err)
	}
	if err := store.WriteFileAtomic(e.indexDir, store.ManifestFile, manData); err != nil {
		return errors.Wrap(errors.IOError, "writing manifest", err)
	}
	return nil
}
