// Package node implements the dependency-graph entity: one node per loaded
// unit, holding bidirectional edges to its dependencies and dependents.
//
// Nodes only track relative ordering between units; absolute ordering over a
// whole subgraph is computed by the graph package.
package node

// Node represents one loaded unit's position in the dependency graph.
//
// Identity is the backing path: two nodes are the same entity iff their
// paths are equal. A node built for the same name at a later load is a
// distinct entity; callers must not retain node references across a reload.
type Node struct {
	// Path is the backing source location of the unit.
	Path string
	// Name is the fully-qualified unit name.
	Name string
	// Package is the owning package, empty for a top-level unit.
	Package string

	dependencies map[string]*Node
	dependents   map[string]*Node
}

// New creates a node with no edges.
func New(path, name, pkg string) *Node {
	return &Node{
		Path:         path,
		Name:         name,
		Package:      pkg,
		dependencies: make(map[string]*Node),
		dependents:   make(map[string]*Node),
	}
}

// AddDependency records that n imports dep. The inverse dependent edge is
// added in the same call; there is no way to create a one-sided edge.
func (n *Node) AddDependency(dep *Node) {
	if dep == nil || dep.Path == n.Path {
		return
	}
	n.dependencies[dep.Path] = dep
	dep.dependents[n.Path] = n
}

// AddDependent records that dep imports n. Equivalent to dep.AddDependency(n).
func (n *Node) AddDependent(dep *Node) {
	if dep == nil {
		return
	}
	dep.AddDependency(n)
}

// RemoveDependency severs the edge between n and dep on both sides.
func (n *Node) RemoveDependency(dep *Node) {
	delete(n.dependencies, dep.Path)
	delete(dep.dependents, n.Path)
}

// Dependencies returns the units n imports.
func (n *Node) Dependencies() []*Node {
	out := make([]*Node, 0, len(n.dependencies))
	for _, dep := range n.dependencies {
		out = append(out, dep)
	}
	return out
}

// Dependents returns the units that import n.
func (n *Node) Dependents() []*Node {
	out := make([]*Node, 0, len(n.dependents))
	for _, dep := range n.dependents {
		out = append(out, dep)
	}
	return out
}

// HasDependents reports whether anything still imports n.
func (n *Node) HasDependents() bool {
	return len(n.dependents) > 0
}

// DependsOn reports whether n directly imports other.
func (n *Node) DependsOn(other *Node) bool {
	_, ok := n.dependencies[other.Path]
	return ok
}

func (n *Node) String() string {
	return "<Node name=" + n.Name + " path=" + n.Path + ">"
}
