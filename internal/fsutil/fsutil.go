// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveWithin joins rel onto dir and verifies the result stays inside dir.
// It returns the cleaned absolute path, or an error when rel escapes dir
// through "..", an absolute path, or symlink-style tricks expressible in the
// lexical path.
func ResolveWithin(dir string, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("empty relative path")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("absolute path %q not allowed", rel)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", dir, err)
	}

	joined := filepath.Clean(filepath.Join(absDir, rel))
	if joined != absDir && !strings.HasPrefix(joined, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %q", rel, dir)
	}
	return joined, nil
}

// SubdirNames lists the names of the immediate subdirectories of dir in
// lexical order, as returned by os.ReadDir.
func SubdirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
