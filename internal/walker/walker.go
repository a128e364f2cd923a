// Package walker enumerates the source files of a workspace in deterministic
// lexicographic order, honoring .gitignore rules and a file size cap.
package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/flytohub/flyto-indexer/internal/config"
	"github.com/flytohub/flyto-indexer/internal/lang"
)

// Entry is one discovered source file.
type Entry struct {
	Path     string // Relative to the walk root, forward slashes
	Language lang.Language
	Size     int64
}

// Options control a walk.
type Options struct {
	MaxFileSize int64
	IgnoreDirs  []string
	Languages   []lang.Language // empty = all supported
	// Cancelled is checked before emitting each path. A nil func never cancels.
	Cancelled func() bool
}

// Walk enumerates source files below root. Dot-directories are skipped except
// the index directory, which is walked like any other directory; symlinks
// pointing outside the root are refused.
func Walk(root string, opts Options) ([]Entry, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	skip := make(map[string]struct{}, len(opts.IgnoreDirs))
	for _, d := range opts.IgnoreDirs {
		skip[d] = struct{}{}
	}

	langSet := make(map[lang.Language]struct{}, len(opts.Languages))
	for _, l := range opts.Languages {
		langSet[l] = struct{}{}
	}

	gi := loadGitignore(absRoot)

	var results []Entry

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if opts.Cancelled != nil && opts.Cancelled() {
			return fs.SkipAll
		}

		name := d.Name()

		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if strings.HasPrefix(name, ".") && name != config.IndexDirName {
				return filepath.SkipDir
			}
			if _, ok := skip[name]; ok {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			if !symlinkWithinRoot(path, absRoot) {
				return nil
			}
		}

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		language := detectLanguage(path)
		if language == lang.Unknown {
			return nil
		}
		if len(langSet) > 0 {
			if _, ok := langSet[language]; !ok {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		// A file at exactly the cap is included; one byte over is not.
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			return nil
		}

		results = append(results, Entry{Path: rel, Language: language, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// detectLanguage decides by extension, falling back to a first-line sniff for
// extensionless files.
func detectLanguage(path string) lang.Language {
	if l := lang.ForExtension(filepath.Ext(path)); l != lang.Unknown {
		return l
	}
	if filepath.Ext(path) != "" {
		return lang.Unknown
	}
	f, err := os.Open(path)
	if err != nil {
		return lang.Unknown
	}
	defer f.Close() //nolint:errcheck // Best effort cleanup
	head := make([]byte, 128)
	n, _ := f.Read(head)
	return lang.Detect(path, head[:n])
}

// symlinkWithinRoot reports whether a symlink resolves to a target inside root.
func symlinkWithinRoot(path, root string) bool {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		rootResolved = root
	}
	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// DefaultOptions derives walk options from scan configuration.
func DefaultOptions(cfg config.ScanConfig) Options {
	return Options{
		MaxFileSize: int64(cfg.MaxFileSizeBytes),
		IgnoreDirs:  cfg.IgnoreDirs,
	}
}
