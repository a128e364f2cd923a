//go:build !windows

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/flytohub/flyto-indexer/internal/errors"
)

const lockFile = "index.lock"

// Lock represents an exclusive writer lock on the index directory. Readers
// never acquire it; they rely on atomic renames instead.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock attempts to acquire the exclusive writer lock. A second writer
// fails fast with an index_locked error.
func AcquireLock(indexDir string) (*Lock, error) {
	if err := os.MkdirAll(indexDir, 0755); err != nil {
		return nil, errors.Wrap(errors.IOError, "creating index directory", err)
	}

	path := filepath.Join(indexDir, lockFile)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrap(errors.IOError, "opening lock file", err)
	}

	// Try to acquire exclusive lock (non-blocking)
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()

		// Read the holder PID for a better error message
		if content, readErr := os.ReadFile(path); readErr == nil && len(content) > 0 {
			pid := strings.TrimSpace(string(content))
			return nil, errors.New(errors.IndexLocked,
				fmt.Sprintf("index is locked by another writer (PID %s)", pid))
		}
		return nil, errors.New(errors.IndexLocked, "index is locked by another writer")
	}

	// Record our PID in the lock file
	if err := file.Truncate(0); err != nil {
		releaseFile(file)
		return nil, errors.Wrap(errors.IOError, "truncating lock file", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		releaseFile(file)
		return nil, errors.Wrap(errors.IOError, "seeking lock file", err)
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		releaseFile(file)
		return nil, errors.Wrap(errors.IOError, "writing PID to lock file", err)
	}

	return &Lock{path: path, file: file}, nil
}

func releaseFile(file *os.File) {
	_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	_ = file.Close()
}

// Release releases the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	releaseFile(l.file)
	l.file = nil
	_ = os.Remove(l.path)
}
