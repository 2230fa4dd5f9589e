package outputs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Find searches the output root recursively for an artifact with the
// given filename and returns its absolute path, or "" when absent.
//
// Filenames containing path separators or traversal segments are
// rejected outright; artifact names are flat identifiers.
func Find(root, filename string) string {
	if root == "" || !SafeFilename(filename) {
		return ""
	}

	matches, err := doublestar.Glob(os.DirFS(root), "**/"+filename)
	if err != nil {
		return ""
	}

	for _, m := range matches {
		full := filepath.Join(root, filepath.FromSlash(m))
		info, err := os.Stat(full)
		if err == nil && info.Mode().IsRegular() {
			return full
		}
	}
	return ""
}

// SafeFilename reports whether name is a plain filename with no path
// components.
func SafeFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}
