// Package manager orchestrates unit lifecycle: it issues load and unload
// calls against the host, keeps the name to node registry, and drives the
// ordering engine so a reload replaces a unit together with everything that
// depends on it.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/reloadgo/internal/ctxlog"
	"github.com/vk/reloadgo/internal/graph"
	"github.com/vk/reloadgo/internal/node"
	"github.com/vk/reloadgo/internal/parser"
	"github.com/vk/reloadgo/internal/registry"
	"github.com/vk/reloadgo/internal/resolve"
	"github.com/vk/reloadgo/internal/scanner"
)

// LoaderFunc performs the host-side load or unload of one unit. The name may
// be relative to pkg, exactly as the caller supplied it.
type LoaderFunc func(ctx context.Context, name, pkg string) error

// ErrUnrecognizedUnit is returned by a custom LoaderFunc to signal that the
// unit is not one it manages. The manager then falls back to the default
// behavior for that unit.
var ErrUnrecognizedUnit = errors.New("unit not recognized by the configured loader")

// UnknownModuleError reports a reload or unload request for a name that has
// no tracked node.
type UnknownModuleError struct {
	Name string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("no tracked unit named %q", e.Name)
}

// Manager owns the tracked nodes. All public methods take the internal lock;
// a reload holds it across the whole compute-unload-load sequence so no
// caller observes a half-replaced graph.
type Manager struct {
	root      string
	extension string
	host      registry.ModuleRegistry
	builder   *graph.Builder
	extractor parser.Extractor

	mu       sync.Mutex
	modules  map[string]*node.Node
	loadFn   LoaderFunc
	unloadFn LoaderFunc
}

// New creates a Manager tracking units under root whose source files carry
// the given extension.
func New(host registry.ModuleRegistry, root, extension string) *Manager {
	return &Manager{
		root:      root,
		extension: extension,
		host:      host,
		builder:   graph.NewBuilder(scanner.New(nil, host), host, root),
		extractor: parser.LineExtractor{},
		modules:   make(map[string]*node.Node),
	}
}

// SetLoader installs fn as the load routine. A nil fn restores the default,
// which reads the unit's source tree into the host registry.
func (m *Manager) SetLoader(fn LoaderFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadFn = fn
}

// SetUnloader installs fn as the unload routine. A nil fn restores the
// default, which removes the unit from the host registry.
func (m *Manager) SetUnloader(fn LoaderFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unloadFn = fn
}

// Modules returns a snapshot of the tracked nodes keyed by fully-qualified
// name.
func (m *Manager) Modules() map[string]*node.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*node.Node, len(m.modules))
	for name, n := range m.modules {
		out[name] = n
	}
	return out
}

// LoadModule loads the named unit through the configured loader, scans it,
// and registers its node together with every transitively imported loaded
// unit. A unit whose source cannot be tracked is still loaded; it simply
// gets no node.
func (m *Manager) LoadModule(ctx context.Context, name, pkg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadModule(ctx, name, pkg)
}

// loadModule is LoadModule with the lock already held.
func (m *Manager) loadModule(ctx context.Context, name, pkg string) error {
	if err := m.callLoad(ctx, name, pkg); err != nil {
		return fmt.Errorf("load %q: %w", name, err)
	}

	n, err := m.builder.Build(ctx, name, pkg, m.modules)
	if err != nil {
		return err
	}
	if n == nil {
		ctxlog.FromContext(ctx).Debug("Unit loaded but not tracked.", "unit", name)
		return nil
	}

	m.modules[n.Name] = n
	n.WalkDependencies(func(dep *node.Node, _ int) {
		m.modules[dep.Name] = dep
	})
	ctxlog.FromContext(ctx).Debug("Unit loaded.", "unit", n.Name)
	return nil
}

// ReloadModule unloads the named unit together with its transitive
// dependents in safe order, then loads the cascade's entry points so the
// affected subgraph is rebuilt with fresh nodes.
//
// An OrderingConflictError from the ordering engine aborts the reload before
// anything is unloaded. A failure partway through leaves already-unloaded
// units unloaded; the caller retries by loading the affected names again.
func (m *Manager) ReloadModule(ctx context.Context, name, pkg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	resolved, err := resolve.Name(name, pkg, "", 0)
	if err != nil {
		return err
	}
	n, ok := m.modules[resolved]
	if !ok {
		return &UnknownModuleError{Name: resolved}
	}

	order, err := graph.FindDependencyOrder(n)
	if err != nil {
		return err
	}

	// Entry points of the cascade: members nothing else imports. Loading
	// them re-imports everything underneath. A cycle can leave the set
	// empty, in which case the requested unit itself restarts the cascade.
	var topLevel []*node.Node
	for _, bucket := range order {
		for _, member := range bucket {
			if !member.HasDependents() {
				topLevel = append(topLevel, member)
			}
		}
	}
	if len(topLevel) == 0 {
		topLevel = []*node.Node{n}
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Reloading unit.", "unit", resolved, "buckets", len(order))

	for _, bucket := range order {
		for _, member := range bucket {
			if err := m.callUnload(ctx, member.Name, member.Package); err != nil {
				return fmt.Errorf("unload %q: %w", member.Name, err)
			}
			delete(m.modules, member.Name)
		}
	}

	// The old nodes are dead. Severing their edges also detaches units
	// outside the cascade, so rebuilt nodes relink against clean peers.
	for _, bucket := range order {
		for _, member := range bucket {
			for _, dep := range member.Dependencies() {
				member.RemoveDependency(dep)
			}
			for _, dependent := range member.Dependents() {
				dependent.RemoveDependency(member)
			}
		}
	}

	for _, entry := range topLevel {
		if err := m.loadModule(ctx, entry.Name, entry.Package); err != nil {
			return err
		}
	}
	return nil
}

// UnloadModule unloads the named unit and deregisters its node, then
// cascades into any dependency left with no remaining dependents. A unit is
// never removed while something still imports it.
func (m *Manager) UnloadModule(ctx context.Context, name, pkg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	resolved, err := resolve.Name(name, pkg, "", 0)
	if err != nil {
		return err
	}
	n, ok := m.modules[resolved]
	if !ok {
		return &UnknownModuleError{Name: resolved}
	}

	logger := ctxlog.FromContext(ctx)
	queue := []*node.Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, tracked := m.modules[cur.Name]; !tracked {
			continue
		}

		if err := m.callUnload(ctx, cur.Name, cur.Package); err != nil {
			return fmt.Errorf("unload %q: %w", cur.Name, err)
		}
		delete(m.modules, cur.Name)
		logger.Debug("Unit unloaded.", "unit", cur.Name)

		for _, dep := range cur.Dependencies() {
			cur.RemoveDependency(dep)
			if !dep.HasDependents() {
				queue = append(queue, dep)
			}
		}
		for _, dependent := range cur.Dependents() {
			dependent.RemoveDependency(cur)
		}
	}
	return nil
}

// callLoad runs the configured loader, falling back to the default when no
// loader is set or the loader does not recognize the unit.
func (m *Manager) callLoad(ctx context.Context, name, pkg string) error {
	if m.loadFn != nil {
		err := m.loadFn(ctx, name, pkg)
		if err == nil || !errors.Is(err, ErrUnrecognizedUnit) {
			return err
		}
		ctxlog.FromContext(ctx).Debug("Loader does not recognize unit, using default.", "unit", name)
	}
	return m.defaultLoad(ctx, name, pkg)
}

// callUnload mirrors callLoad for the unload side.
func (m *Manager) callUnload(ctx context.Context, name, pkg string) error {
	if m.unloadFn != nil {
		err := m.unloadFn(ctx, name, pkg)
		if err == nil || !errors.Is(err, ErrUnrecognizedUnit) {
			return err
		}
		ctxlog.FromContext(ctx).Debug("Unloader does not recognize unit, using default.", "unit", name)
	}
	return m.defaultUnload(ctx, name, pkg)
}
