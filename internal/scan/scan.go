// Package scan lists the source files present in a directory at startup.
package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultPattern selects plain text inputs.
const DefaultPattern = "*.txt"

var ErrNotDir = errors.New("not a directory")

// Dir returns the full paths of regular files directly inside dir whose base
// name matches pattern, in lexical order. Symlinks are followed only when they
// resolve to regular files. Subdirectories are not descended into.
func Dir(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("scan pattern %q: %w", pattern, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !Matches(pattern, entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !isRegular(path, entry) {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Matches reports whether the base name of path matches pattern.
func Matches(pattern, path string) bool {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matched, err := filepath.Match(pattern, filepath.Base(path))
	return err == nil && matched
}

func isRegular(path string, entry os.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	target, err := os.Stat(path)
	if err != nil {
		return false
	}
	return target.Mode().IsRegular()
}
