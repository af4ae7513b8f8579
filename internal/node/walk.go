package node

// WalkDependencies visits every transitive dependency of n, calling fn with
// the dependency and its depth relative to n (direct dependencies are depth
// 1). A unit reachable over several paths is visited once per path, so
// callers observe every depth it occurs at. Nodes already entered on the
// current path are not re-entered, which bounds the walk on cyclic graphs.
func (n *Node) WalkDependencies(fn func(dep *Node, depth int)) {
	n.walk(fn, func(m *Node) map[string]*Node { return m.dependencies })
}

// WalkDependents is the inverse of WalkDependencies: it visits every
// transitive dependent of n with its depth relative to n.
func (n *Node) WalkDependents(fn func(dep *Node, depth int)) {
	n.walk(fn, func(m *Node) map[string]*Node { return m.dependents })
}

// walk is an iterative depth-first traversal with an explicit on-path guard.
// The recursive form this replaces had no depth bound on cycles.
func (n *Node) walk(fn func(*Node, int), edges func(*Node) map[string]*Node) {
	type frame struct {
		node  *Node
		depth int
		exit  bool
	}

	stack := []frame{{node: n}}
	onPath := make(map[string]bool)

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.exit {
			delete(onPath, f.node.Path)
			continue
		}

		if f.depth > 0 {
			fn(f.node, f.depth)
		}

		onPath[f.node.Path] = true
		stack = append(stack, frame{node: f.node, depth: f.depth, exit: true})

		for _, next := range edges(f.node) {
			if onPath[next.Path] {
				continue
			}
			stack = append(stack, frame{node: next, depth: f.depth + 1})
		}
	}
}
