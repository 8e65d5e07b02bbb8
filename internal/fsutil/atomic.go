// Package fsutil replaces files atomically: content goes to a temporary file
// in the target's directory and is renamed over the target only once it is
// complete, so readers see either the old file or the new one.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
)

// TempPattern returns the os.CreateTemp pattern used for path. Files matching
// it are leftovers of interrupted writes and are safe to delete.
func TempPattern(path string) string {
	return "." + filepath.Base(path) + ".tmp-*"
}

// IsTemp reports whether name looks like a temporary file for path.
func IsTemp(path, name string) bool {
	prefix := "." + filepath.Base(path) + ".tmp-"
	return strings.HasPrefix(filepath.Base(name), prefix)
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, sync bool) error {
	return Replace(path, sync, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// Replace creates a temporary file next to path, lets fill write it, then
// renames it over path. If fill or any later step fails the temporary file
// is removed and path is left untouched. With sync set, the file is fsynced
// before the rename and the directory after it.
func Replace(path string, sync bool, fill func(f *os.File) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, TempPattern(path))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	closed := false

	defer func() {
		if err == nil {
			return
		}
		if !closed {
			err = multierr.Append(err, tmp.Close())
		}
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
	}()

	if err = fill(tmp); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if sync {
		if err = tmp.Sync(); err != nil {
			return fmt.Errorf("syncing temp file: %w", err)
		}
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return commit(tmpName, path, sync)
}

// ReplacePath is Replace for writers that need a path rather than an open
// file, such as embedded databases. fill receives the path of an empty
// temporary file and must have closed everything it opened on return.
func ReplacePath(path string, sync bool, fill func(tmpPath string) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, TempPattern(path))
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		return multierr.Append(fmt.Errorf("closing temp file: %w", err), os.Remove(tmpName))
	}

	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
	}()

	if err = fill(tmpName); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	return commit(tmpName, path, sync)
}

func commit(tmpName, path string, sync bool) error {
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	if sync {
		if err := SyncDir(filepath.Dir(path)); err != nil {
			return fmt.Errorf("syncing dir: %w", err)
		}
	}
	return nil
}

// RemoveStale deletes leftover temporary files for path and returns how
// many were removed.
func RemoveStale(path string) (int, error) {
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	var errs error
	n := 0
	for _, e := range entries {
		if e.IsDir() || !IsTemp(path, e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, err)
			continue
		}
		n++
	}
	return n, errs
}
