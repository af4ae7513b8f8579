// Package registry defines the host module-registry capability: the
// process-wide mapping from a fully-qualified name to its loaded unit.
//
// The core mirrors this registry but does not own it; modelling it as an
// explicit interface keeps the graph and manager testable against a fake.
package registry

import "sync"

// Unit is one loaded source unit as the host registry sees it.
type Unit struct {
	// Name is the fully-qualified unit name.
	Name string
	// Package is the owning package name, empty for a top-level unit.
	Package string
	// Path is the unit's backing source location. Empty for namespace-style
	// packages that have no concrete source file.
	Path string
	// Source is the unit's source text as captured at load time.
	Source []byte
}

// ModuleRegistry is the capability the core needs from the host's registry.
type ModuleRegistry interface {
	// Lookup returns the unit registered under the fully-qualified name.
	Lookup(name string) (*Unit, bool)
	// Insert registers a unit under its fully-qualified name, replacing any
	// previous entry.
	Insert(unit *Unit)
	// Remove drops the entry for the fully-qualified name, reporting whether
	// an entry existed.
	Remove(name string) bool
}

// InMemory is a ModuleRegistry backed by a plain map. It is the registry the
// CLI runs against and the fake the tests use.
type InMemory struct {
	mu    sync.RWMutex
	units map[string]*Unit
}

// NewInMemory creates an empty in-memory module registry.
func NewInMemory() *InMemory {
	return &InMemory{units: make(map[string]*Unit)}
}

// Lookup implements ModuleRegistry.
func (r *InMemory) Lookup(name string) (*Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, ok := r.units[name]
	return unit, ok
}

// Insert implements ModuleRegistry.
func (r *InMemory) Insert(unit *Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units[unit.Name] = unit
}

// Remove implements ModuleRegistry.
func (r *InMemory) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.units[name]
	delete(r.units, name)
	return ok
}

// Len reports the number of registered units.
func (r *InMemory) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.units)
}
