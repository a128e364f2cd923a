//go:build windows

package store

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/flytohub/flyto-indexer/internal/errors"
)

const lockFile = "index.lock"

// Lock represents an exclusive writer lock on the index directory.
// Windows has no flock; O_CREATE|O_EXCL on the lock file approximates it.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock attempts to acquire the exclusive writer lock.
func AcquireLock(indexDir string) (*Lock, error) {
	if err := os.MkdirAll(indexDir, 0755); err != nil {
		return nil, errors.Wrap(errors.IOError, "creating index directory", err)
	}

	path := filepath.Join(indexDir, lockFile)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.New(errors.IndexLocked, "index is locked by another writer")
		}
		return nil, errors.Wrap(errors.IOError, "opening lock file", err)
	}

	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, errors.Wrap(errors.IOError, "writing PID to lock file", err)
	}

	return &Lock{path: path, file: file}, nil
}

// Release releases the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
	l.file = nil
	_ = os.Remove(l.path)
}
