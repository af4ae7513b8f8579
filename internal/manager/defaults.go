package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/reloadgo/internal/ctxlog"
	"github.com/vk/reloadgo/internal/fsutil"
	"github.com/vk/reloadgo/internal/parser"
	"github.com/vk/reloadgo/internal/registry"
	"github.com/vk/reloadgo/internal/resolve"
)

// defaultLoad imports the unit into the host registry by reading its source
// tree under root, the way the host's own import machinery would: parent
// packages first, then the unit, then every imported unit whose source
// exists under root.
func (m *Manager) defaultLoad(ctx context.Context, name, pkg string) error {
	resolved, err := resolve.Name(name, pkg, "", 0)
	if err != nil {
		return err
	}
	return m.insertUnit(ctx, resolved, make(map[string]bool))
}

// insertUnit registers one unit and recurses into its imports. visiting
// breaks import cycles within a single load.
func (m *Manager) insertUnit(ctx context.Context, name string, visiting map[string]bool) error {
	if visiting[name] {
		return nil
	}
	visiting[name] = true
	if _, ok := m.host.Lookup(name); ok {
		return nil
	}

	if parent := fsutil.ParentPackage(name); parent != "" {
		if err := m.insertUnit(ctx, parent, visiting); err != nil {
			return err
		}
	}

	path := fsutil.UnitPath(m.root, name, m.extension)
	if path == "" {
		// A directory without an init file loads as a namespace package.
		m.host.Insert(&registry.Unit{Name: name, Package: fsutil.ParentPackage(name)})
		return nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load unit %q: %w", name, err)
	}

	// An init file defines the package itself, so the unit is its own
	// package. A plain unit belongs to its parent.
	unitPkg := fsutil.ParentPackage(name)
	if filepath.Base(path) == fsutil.InitName+m.extension {
		unitPkg = name
	}
	m.host.Insert(&registry.Unit{Name: name, Package: unitPkg, Path: path, Source: src})

	statements, err := m.extractor.Extract(src)
	if err != nil {
		if errors.Is(err, parser.ErrUnparsableSource) {
			return nil
		}
		return err
	}

	logger := ctxlog.FromContext(ctx)
	recurse := func(ref, module string, level int) {
		resolved, err := resolve.Name(ref, unitPkg, module, level)
		if err != nil {
			logger.Debug("Skipping unresolvable import.", "unit", name, "reference", ref, "error", err)
			return
		}
		if !m.unitExists(resolved) {
			return
		}
		if err := m.insertUnit(ctx, resolved, visiting); err != nil {
			logger.Debug("Skipping import that failed to load.", "unit", name, "import", resolved, "error", err)
		}
	}
	for _, stmt := range statements {
		if stmt.Module != "" {
			recurse(stmt.Module, "", stmt.Level)
		}
		for _, imported := range stmt.Names {
			recurse(imported, stmt.Module, stmt.Level)
		}
	}
	return nil
}

// unitExists reports whether the name is backed by source under root, either
// a concrete file or a package directory.
func (m *Manager) unitExists(name string) bool {
	path := fsutil.UnitPath(m.root, name, m.extension)
	if path == "" {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

// defaultUnload removes the unit's entry from the host registry.
func (m *Manager) defaultUnload(_ context.Context, name, pkg string) error {
	resolved, err := resolve.Name(name, pkg, "", 0)
	if err != nil {
		return err
	}
	if !m.host.Remove(resolved) {
		return fmt.Errorf("unit %q is not present in the host registry", resolved)
	}
	return nil
}
