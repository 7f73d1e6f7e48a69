package depgraph

import "iter"

// Roots returns the nodes without physical ancestors, in insertion order.
// Together with [Node.Children] it lets callers walk the containment tree
// recursively.
func (e *Engine) Roots() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, n := range e.nodes {
			if n.hasPhysical(n.ancestors) {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// Children returns the physical children of n.
func (n *Node) Children() iter.Seq[*Node] { return n.physical(n.children) }

// Ancestors returns the physical ancestors of n.
func (n *Node) Ancestors() iter.Seq[*Node] { return n.physical(n.ancestors) }

func (n *Node) physical(list []edge) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, ed := range list {
			if !ed.physical {
				continue
			}
			if !yield(n.engine.nodes[ed.to]) {
				return
			}
		}
	}
}

func (n *Node) hasPhysical(list []edge) bool {
	for _, ed := range list {
		if ed.physical {
			return true
		}
	}
	return false
}
