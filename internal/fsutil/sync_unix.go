//go:build !windows

package fsutil

import (
	"errors"
	"os"
	"syscall"
)

// SyncDir flushes renames in dirName to stable storage.
func SyncDir(dirName string) error {
	dir, err := os.OpenFile(dirName, os.O_RDONLY, os.ModeDir)
	if err != nil {
		return err
	}
	defer dir.Close()

	// Some network and container filesystems do not support fsync on a
	// directory and report EINVAL; the rename itself has still happened.
	if err := dir.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) {
		return err
	}
	return dir.Close()
}
