// Package fsutil maps fully-qualified unit names onto the file tree rooted
// at the configured root path, and provides file discovery helpers.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/reloadgo/internal/resolve"
)

// InitName is the base name (without extension) of the backing source file
// of a package-style unit. A directory without one is a namespace package.
const InitName = "_init"

// FindFilesByExtension walks the tree under root and returns the full path
// of every unit source file, that is, every file carrying the extension.
func FindFilesByExtension(root, extension string) ([]string, error) {
	if extension == "" {
		return nil, errors.New("unit extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), extension) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// UnitPath maps a fully-qualified unit name to its backing source path.
// A name whose components form a directory under root is a package-style
// unit backed by its init file; the returned path is empty when that file
// does not exist (a namespace package). Otherwise the name maps to a plain
// source file, which need not exist yet.
func UnitPath(root, name, extension string) string {
	parts := strings.Split(name, resolve.Separator)
	dir := filepath.Join(append([]string{root}, parts...)...)

	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		initPath := filepath.Join(dir, InitName+extension)
		if _, err := os.Stat(initPath); err != nil {
			return ""
		}
		return initPath
	}
	return dir + extension
}

// UnitName maps a source path under root back to its fully-qualified name.
// The boolean result is false when the path is not under root or does not
// carry the extension.
func UnitName(root, path, extension string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	if !strings.HasSuffix(rel, extension) {
		return "", false
	}

	rel = strings.TrimSuffix(rel, extension)
	parts := strings.Split(rel, string(filepath.Separator))
	if parts[len(parts)-1] == InitName {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, resolve.Separator), true
}

// Within reports whether path is nested under root.
func Within(root, path string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ParentPackage returns the owning package of a fully-qualified name, or the
// empty string for a top-level name.
func ParentPackage(name string) string {
	idx := strings.LastIndex(name, resolve.Separator)
	if idx < 0 {
		return ""
	}
	return name[:idx]
}
