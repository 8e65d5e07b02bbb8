//go:build windows

package fsutil

// SyncDir is a no-op on Windows, where directories cannot be opened for sync.
func SyncDir(dirName string) error {
	return nil
}
