package graph

import (
	"context"
	"errors"

	"github.com/vk/reloadgo/internal/ctxlog"
	"github.com/vk/reloadgo/internal/fsutil"
	"github.com/vk/reloadgo/internal/node"
	"github.com/vk/reloadgo/internal/parser"
	"github.com/vk/reloadgo/internal/registry"
	"github.com/vk/reloadgo/internal/resolve"
	"github.com/vk/reloadgo/internal/scanner"
)

// Builder constructs dependency nodes for loaded units by scanning their
// source for imports of other loaded units.
type Builder struct {
	scanner  *scanner.Scanner
	registry registry.ModuleRegistry
	root     string
}

// NewBuilder creates a Builder scoped to units under root.
func NewBuilder(s *scanner.Scanner, reg registry.ModuleRegistry, root string) *Builder {
	return &Builder{scanner: s, registry: reg, root: root}
}

// Build resolves name and constructs its node together with nodes for every
// transitively imported loaded unit, linking dependency edges as it goes.
// Transitively reached units present in known are reused as-is, so edges
// accumulate on the tracked entity when several units import the same
// dependency. The directly requested unit is always rescanned: a known node
// for it keeps its identity and dependents but has its dependency edges
// rebuilt from the current source, so imports of units loaded after the
// first scan are picked up.
//
// A nil node with a nil error means the unit is loaded but untrackable: its
// source cannot be parsed, it is a namespace-style package with no concrete
// source file, or its backing file lives outside the configured root.
// Resolution failures inside the directly requested unit are returned;
// inside transitively discovered units they only drop the affected imports.
func (b *Builder) Build(ctx context.Context, name, pkg string, known map[string]*node.Node) (*node.Node, error) {
	resolved, err := resolve.Name(name, pkg, "", 0)
	if err != nil {
		return nil, err
	}

	building := make(map[string]*node.Node, len(known))
	for k, v := range known {
		building[k] = v
	}
	return b.build(ctx, resolved, true, building)
}

func (b *Builder) build(ctx context.Context, name string, top bool, building map[string]*node.Node) (*node.Node, error) {
	// A unit already being built in this pass is linked without recursing,
	// which keeps import cycles from recursing forever. The top-level unit
	// falls through so its imports are rescanned.
	if n, ok := building[name]; ok && !top {
		return n, nil
	}

	logger := ctxlog.FromContext(ctx)

	unit, ok := b.registry.Lookup(name)
	if !ok {
		return nil, nil
	}
	if unit.Path == "" {
		logger.Debug("Skipping namespace package.", "unit", name)
		return nil, nil
	}
	if !fsutil.Within(b.root, unit.Path) {
		logger.Debug("Skipping unit outside root.", "unit", name, "path", unit.Path)
		return nil, nil
	}

	var imports map[string]struct{}
	var scanErr error
	if unit.Source != nil {
		imports, scanErr = b.scanner.Scan(unit.Source, unit.Package)
	} else {
		imports, scanErr = b.scanner.ScanFile(unit.Path, unit.Package)
	}
	if scanErr != nil {
		if errors.Is(scanErr, parser.ErrUnparsableSource) {
			logger.Debug("Skipping unit with unparsable source.", "unit", name)
			return nil, nil
		}
		if top {
			return nil, scanErr
		}
		logger.Debug("Dropping unresolvable imports.", "unit", name, "error", scanErr)
	}

	n, reused := building[name]
	if reused {
		// Keep the tracked identity and its dependents; only the dependency
		// edges are rebuilt from the fresh scan.
		for _, dep := range n.Dependencies() {
			n.RemoveDependency(dep)
		}
	} else {
		n = node.New(unit.Path, name, unit.Package)
		building[name] = n
	}

	for imp := range imports {
		dep, err := b.build(ctx, imp, false, building)
		if err != nil {
			logger.Debug("Skipping dependency that failed to build.", "unit", name, "dependency", imp, "error", err)
			continue
		}
		if dep != nil {
			n.AddDependency(dep)
		}
	}
	return n, nil
}
