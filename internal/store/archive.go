package store

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Archive writes a .tar.zst snapshot of the index directory to dest. Lock and
// temp files are excluded; entries are ordered so identical directories
// produce identical archives.
func Archive(indexDir, dest string) error {
	entries, err := os.ReadDir(indexDir)
	if err != nil {
		return fmt.Errorf("failed to read index directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == lockFile || strings.Contains(name, ".tmp-") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close() //nolint:errcheck // Best effort cleanup

	zw, err := zstd.NewWriter(out)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)

	for _, name := range names {
		if err := addFile(tw, indexDir, name); err != nil {
			_ = tw.Close()
			_ = zw.Close()
			return err
		}
	}

	if err := tw.Close(); err != nil {
		_ = zw.Close()
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish zstd stream: %w", err)
	}
	return out.Sync()
}

func addFile(tw *tar.Writer, dir, name string) error {
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}

	hdr := &tar.Header{
		Name: name,
		Mode: 0644,
		Size: info.Size(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close() //nolint:errcheck // Best effort cleanup

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to archive %s: %w", name, err)
	}
	return nil
}
