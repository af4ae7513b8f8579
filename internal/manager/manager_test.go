package manager

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/reloadgo/internal/registry"
)

const testExtension = ".unit"

// writeUnit materializes a unit source file for the given fully-qualified
// name under root.
func writeUnit(t *testing.T, root, name, src string) {
	t.Helper()
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator))
	path := filepath.Join(root, rel+testExtension)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func newTestManager(t *testing.T) (*Manager, *registry.InMemory, string) {
	t.Helper()
	root := t.TempDir()
	host := registry.NewInMemory()
	return New(host, root, testExtension), host, root
}

func TestLoadModuleTracksImports(t *testing.T) {
	m, host, root := newTestManager(t)
	writeUnit(t, root, "bar", "value = 1\n")
	writeUnit(t, root, "foo", "import bar\n")

	require.NoError(t, m.LoadModule(context.Background(), "foo", ""))

	_, ok := host.Lookup("foo")
	assert.True(t, ok, "foo must be in the host registry")
	_, ok = host.Lookup("bar")
	assert.True(t, ok, "imported bar must be in the host registry")

	modules := m.Modules()
	require.Contains(t, modules, "foo")
	require.Contains(t, modules, "bar")
	deps := modules["foo"].Dependencies()
	require.Len(t, deps, 1)
	assert.Same(t, modules["bar"], deps[0])
}

func TestLoadModuleMissingSource(t *testing.T) {
	m, _, _ := newTestManager(t)
	err := m.LoadModule(context.Background(), "ghost", "")
	require.Error(t, err)
}

func TestLoadModuleInsertsParentPackages(t *testing.T) {
	m, host, root := newTestManager(t)
	writeUnit(t, root, "pkg._init", "name = \"pkg\"\n")
	writeUnit(t, root, "pkg.mod", "x = 1\n")

	require.NoError(t, m.LoadModule(context.Background(), "pkg.mod", ""))

	pkg, ok := host.Lookup("pkg")
	require.True(t, ok)
	assert.Equal(t, "pkg", pkg.Package, "an init-backed package owns itself")

	mod, ok := host.Lookup("pkg.mod")
	require.True(t, ok)
	assert.Equal(t, "pkg", mod.Package)
}

func TestLoadModuleAgainLinksLateImport(t *testing.T) {
	m, _, root := newTestManager(t)
	writeUnit(t, root, "foo", "import bar\n")

	ctx := context.Background()
	require.NoError(t, m.LoadModule(ctx, "foo", ""))
	require.Empty(t, m.Modules()["foo"].Dependencies(), "bar is not loaded yet")

	// bar appears and loads after foo's first scan; loading foo again must
	// pick the edge up.
	writeUnit(t, root, "bar", "value = 1\n")
	require.NoError(t, m.LoadModule(ctx, "bar", ""))
	require.NoError(t, m.LoadModule(ctx, "foo", ""))

	modules := m.Modules()
	deps := modules["foo"].Dependencies()
	require.Len(t, deps, 1)
	assert.Same(t, modules["bar"], deps[0])
	require.Len(t, modules["bar"].Dependents(), 1)
	assert.Same(t, modules["foo"], modules["bar"].Dependents()[0])
}

func TestReloadReplacesDependentsInOrder(t *testing.T) {
	m, _, root := newTestManager(t)
	writeUnit(t, root, "bar", "value = 1\n")
	writeUnit(t, root, "foo", "import bar\n")

	ctx := context.Background()
	require.NoError(t, m.LoadModule(ctx, "foo", ""))
	before := m.Modules()

	var unloaded, loaded []string
	m.SetUnloader(func(_ context.Context, name, _ string) error {
		unloaded = append(unloaded, name)
		return ErrUnrecognizedUnit
	})
	m.SetLoader(func(_ context.Context, name, _ string) error {
		loaded = append(loaded, name)
		return ErrUnrecognizedUnit
	})

	require.NoError(t, m.ReloadModule(ctx, "bar", ""))

	// Dependents unload first; only the cascade's entry point is loaded
	// explicitly, its imports follow from the load itself.
	assert.Equal(t, []string{"foo", "bar"}, unloaded)
	assert.Equal(t, []string{"foo"}, loaded)

	after := m.Modules()
	require.Contains(t, after, "foo")
	require.Contains(t, after, "bar")
	assert.NotSame(t, before["foo"], after["foo"])
	assert.NotSame(t, before["bar"], after["bar"])

	deps := after["foo"].Dependencies()
	require.Len(t, deps, 1)
	assert.Same(t, after["bar"], deps[0])
}

func TestReloadUnknownUnit(t *testing.T) {
	m, _, _ := newTestManager(t)
	err := m.ReloadModule(context.Background(), "ghost", "")
	var unknown *UnknownModuleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.Name)
}

func TestUnloadCascadesIntoOrphanedDependencies(t *testing.T) {
	m, host, root := newTestManager(t)
	writeUnit(t, root, "bar", "value = 1\n")
	writeUnit(t, root, "foo", "import bar\n")

	ctx := context.Background()
	require.NoError(t, m.LoadModule(ctx, "foo", ""))

	require.NoError(t, m.UnloadModule(ctx, "foo", ""))

	assert.Empty(t, m.Modules(), "bar has no remaining dependents and follows foo out")
	_, ok := host.Lookup("foo")
	assert.False(t, ok)
	_, ok = host.Lookup("bar")
	assert.False(t, ok)
}

func TestUnloadKeepsSharedDependency(t *testing.T) {
	m, host, root := newTestManager(t)
	writeUnit(t, root, "bar", "value = 1\n")
	writeUnit(t, root, "foo", "import bar\n")
	writeUnit(t, root, "baz", "import bar\n")

	ctx := context.Background()
	require.NoError(t, m.LoadModule(ctx, "foo", ""))
	require.NoError(t, m.LoadModule(ctx, "baz", ""))

	require.NoError(t, m.UnloadModule(ctx, "foo", ""))

	modules := m.Modules()
	assert.NotContains(t, modules, "foo")
	require.Contains(t, modules, "bar", "bar still has a live dependent")
	require.Contains(t, modules, "baz")
	_, ok := host.Lookup("bar")
	assert.True(t, ok)
}

func TestUnloadUnknownUnit(t *testing.T) {
	m, _, _ := newTestManager(t)
	err := m.UnloadModule(context.Background(), "ghost", "")
	var unknown *UnknownModuleError
	require.ErrorAs(t, err, &unknown)
}

func TestCustomLoaderFallback(t *testing.T) {
	m, host, root := newTestManager(t)
	writeUnit(t, root, "foo", "value = 1\n")

	var seen []string
	m.SetLoader(func(_ context.Context, name, _ string) error {
		seen = append(seen, name)
		return ErrUnrecognizedUnit
	})

	require.NoError(t, m.LoadModule(context.Background(), "foo", ""))
	assert.Equal(t, []string{"foo"}, seen, "the custom loader is offered the unit first")
	_, ok := host.Lookup("foo")
	assert.True(t, ok, "fallback still performs the default load")
}

func TestSetLoaderNilRestoresDefault(t *testing.T) {
	m, host, root := newTestManager(t)
	writeUnit(t, root, "foo", "value = 1\n")

	m.SetLoader(func(_ context.Context, _, _ string) error {
		t.Fatal("loader must have been reset")
		return nil
	})
	m.SetLoader(nil)

	require.NoError(t, m.LoadModule(context.Background(), "foo", ""))
	_, ok := host.Lookup("foo")
	assert.True(t, ok)
}
