// Package fsutil holds the filesystem write helpers shared by the pipelines.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is a single pending output.
type File struct {
	Path string
	Data []byte
}

// WriteFileAtomic writes data to a temporary sibling and renames it over path,
// so readers never observe a truncated file. Parent directories are created.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return WriteFilesAtomic(perm, File{Path: path, Data: data})
}

// WriteFilesAtomic stages every file before renaming any of them. If staging
// fails nothing is renamed, so a related group (stylesheet and source map) is
// either fully replaced or left as it was.
func WriteFilesAtomic(perm os.FileMode, files ...File) error {
	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range files {
		dir := filepath.Dir(f.Path)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			cleanup()
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to create temporary file for %s: %w", f.Path, err)
		}
		staged = append(staged, tmp.Name())
		if _, err := tmp.Write(f.Data); err != nil {
			_ = tmp.Close()
			cleanup()
			return fmt.Errorf("failed to write temporary file for %s: %w", f.Path, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("failed to close temporary file for %s: %w", f.Path, err)
		}
		if err := os.Chmod(tmp.Name(), perm); err != nil {
			cleanup()
			return fmt.Errorf("failed to set permissions on %s: %w", f.Path, err)
		}
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			cleanup()
			return fmt.Errorf("failed to replace %s: %w", f.Path, err)
		}
	}
	return nil
}
