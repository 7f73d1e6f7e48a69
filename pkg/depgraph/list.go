package depgraph

import "iter"

type frameState int

const (
	onAncestors frameState = iota
	onSelf
	onChildren
)

type frame struct {
	node  int
	state frameState
	next  int
}

type visit uint8

const (
	unseen visit = iota
	onStack
	yielded
)

// ListIterator walks the graph so that every node comes after all of its
// ancestors and before its children. It uses an explicit frame stack, so
// depth is bounded by memory rather than the goroutine stack. Each node is
// yielded exactly once; inside a reference cycle the order between the
// members of the cycle is arbitrary but stable.
//
// Typical use:
//
//	it := engine.List()
//	for it.Next() {
//	    process(it.Node())
//	}
type ListIterator struct {
	e         *Engine
	stack     []frame
	state     []visit
	nextStart int
	cur       *Node
}

// List returns an iterator over all nodes in dependency order.
func (e *Engine) List() *ListIterator {
	it := &ListIterator{e: e}
	it.Reset()
	return it
}

// Ordered returns all nodes in dependency order as a sequence.
func (e *Engine) Ordered() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		it := e.List()
		for it.Next() {
			if !yield(it.Node()) {
				return
			}
		}
	}
}

// Reset restarts the iteration from the beginning.
func (it *ListIterator) Reset() {
	it.stack = it.stack[:0]
	it.state = make([]visit, len(it.e.nodes))
	it.nextStart = 0
	it.cur = nil
}

// Node returns the node produced by the last call to Next.
func (it *ListIterator) Node() *Node { return it.cur }

// Next advances to the next node and reports whether there is one.
func (it *ListIterator) Next() bool {
	for {
		if len(it.stack) == 0 {
			start, ok := it.startNode()
			if !ok {
				it.cur = nil
				return false
			}
			it.push(start)
		}

		top := &it.stack[len(it.stack)-1]
		n := it.e.nodes[top.node]
		switch top.state {
		case onAncestors:
			if top.next < len(n.ancestors) {
				a := n.ancestors[top.next].to
				top.next++
				if it.state[a] == unseen {
					it.push(a)
				}
				continue
			}
			top.state = onSelf

		case onSelf:
			top.state = onChildren
			top.next = 0
			it.state[top.node] = yielded
			it.cur = n
			return true

		case onChildren:
			if top.next < len(n.children) {
				c := n.children[top.next].to
				top.next++
				if it.state[c] == unseen && it.ready(c) {
					it.push(c)
				}
				continue
			}
			it.stack = it.stack[:len(it.stack)-1]
		}
	}
}

func (it *ListIterator) push(idx int) {
	it.state[idx] = onStack
	it.stack = append(it.stack, frame{node: idx, state: onAncestors})
}

// ready reports whether every ancestor of idx has been yielded.
func (it *ListIterator) ready(idx int) bool {
	for _, a := range it.e.nodes[idx].ancestors {
		if it.state[a.to] != yielded {
			return false
		}
	}
	return true
}

// startNode picks the next unvisited node without ancestors. Once those
// are exhausted, any unvisited node is taken so that components consisting
// only of cycles are still covered.
func (it *ListIterator) startNode() (int, bool) {
	for ; it.nextStart < len(it.state); it.nextStart++ {
		if it.state[it.nextStart] == unseen && len(it.e.nodes[it.nextStart].ancestors) == 0 {
			return it.nextStart, true
		}
	}
	for i, v := range it.state {
		if v == unseen {
			return i, true
		}
	}
	return 0, false
}
