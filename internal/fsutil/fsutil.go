// Package fsutil holds the path and file helpers used when writing results.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultFilePerm os.FileMode = 0o644
	tempPattern                 = ".lettercount-*.tmp"
)

var ErrInvalidName = errors.New("invalid file name")

// DestinationPath maps a source file to the same base name inside destDir.
func DestinationPath(destDir, source string) (string, error) {
	name := filepath.Base(filepath.Clean(source))
	if name == "." || name == ".." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("%q: %w", source, ErrInvalidName)
	}
	return filepath.Join(destDir, name), nil
}

// ReplaceFile writes data to a temp file next to dest and renames it over
// dest, so readers see either the old content or the new, never a mix.
func ReplaceFile(dest string, data []byte, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultFilePerm
	}
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// SameDir reports whether two directory paths resolve to the same directory.
func SameDir(left, right string) (bool, error) {
	leftInfo, err := os.Stat(left)
	if err != nil {
		return false, err
	}
	rightInfo, err := os.Stat(right)
	if err != nil {
		return false, err
	}
	return os.SameFile(leftInfo, rightInfo), nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
