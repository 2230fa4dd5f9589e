package outputs

import (
	"os"
	"path/filepath"
	"time"
)

// SweepExpired removes regular files under dir whose modification time is
// older than maxAge and returns the number removed.
//
// Cleanup is best-effort: a missing directory or a file that disappears
// mid-sweep is not an error.
func SweepExpired(dir string, maxAge time.Duration) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil || os.IsNotExist(err) {
				removed++
			}
		}
	}
	return removed
}

// Remove deletes the file at path, tolerating a file that is already
// absent.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
