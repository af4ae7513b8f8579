// Package graph builds dependency nodes for loaded units and computes the
// safe unload/reload order for a unit and its transitive dependents.
package graph

import (
	"fmt"

	"github.com/vk/reloadgo/internal/node"
)

// Bucket is a set of nodes assigned the same depth by the leveling
// algorithm. Order is guaranteed only across buckets, never within one.
type Bucket map[string]*node.Node

// add inserts n keyed by its identity.
func (b Bucket) add(n *node.Node) { b[n.Path] = n }

// OrderingConflictError reports that the depth map produced contradictory
// placement for a unit: it was pinned as a foundational dependency but a
// dependent walk required it earlier. The graph shape cannot be linearized.
type OrderingConflictError struct {
	Name     string
	Recorded int
	Computed int
}

func (e *OrderingConflictError) Error() string {
	return fmt.Sprintf("ordering conflict for %q: recorded depth %d, dependent walk computed %d",
		e.Name, e.Recorded, e.Computed)
}

// FindDependencyOrder levels the subgraph around target into a bucket
// sequence in unload order: the farthest dependents come first and the most
// foundational dependencies last, so nothing is unloaded while a live
// dependent still needs it. Iterating the sequence in reverse gives the
// reload order.
//
// Dependencies are pinned to the greatest depth they occur at, dependents to
// the smallest (most negative) offset, so a unit shared between several
// chains is never placed before something that needs it.
func FindDependencyOrder(target *node.Node) ([]Bucket, error) {
	depths := map[*node.Node]int{target: 0}
	minDepth, maxDepth := 0, 0

	// Dependency side: keep each unit's farthest occurrence.
	target.WalkDependencies(func(dep *node.Node, depth int) {
		if cur, ok := depths[dep]; !ok || depth > cur {
			depths[dep] = depth
		}
		if depth > maxDepth {
			maxDepth = depth
		}
	})

	// Dependent side: everything reloading after its dependency sits at a
	// negative offset relative to it. Only the units found so far get their
	// dependents walked; the walk itself is transitive.
	type pinned struct {
		node  *node.Node
		depth int
	}
	snapshot := make([]pinned, 0, len(depths))
	for n, d := range depths {
		snapshot = append(snapshot, pinned{n, d})
	}

	var conflict *OrderingConflictError
	for _, p := range snapshot {
		p.node.WalkDependents(func(dep *node.Node, depth int) {
			if conflict != nil {
				return
			}
			actual := p.depth - depth
			cur, ok := depths[dep]
			switch {
			case !ok:
				depths[dep] = actual
			case actual < cur && cur > 0:
				// A unit pinned as a dependency is being pulled toward the
				// dependent side. A direct mutual import is tolerated and
				// keeps its recorded depth; anything else cannot be
				// linearized.
				if p.node.DependsOn(dep) && dep.DependsOn(p.node) {
					return
				}
				conflict = &OrderingConflictError{Name: dep.Name, Recorded: cur, Computed: actual}
				return
			case actual < cur:
				depths[dep] = actual
			}
			if actual < minDepth {
				minDepth = actual
			}
		})
		if conflict != nil {
			return nil, conflict
		}
	}

	order := make([]Bucket, maxDepth-minDepth+1)
	for i := range order {
		order[i] = make(Bucket)
	}
	for n, depth := range depths {
		order[depth-minDepth].add(n)
	}
	return order, nil
}
