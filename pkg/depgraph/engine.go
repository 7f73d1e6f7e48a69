package depgraph

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/keygraph/pkg/keychain"
	"github.com/matzehuels/keygraph/pkg/observability"
)

// Object is anything the engine can track: it must expose its identity.
type Object interface {
	KeyChain() keychain.KeyChain
}

// Discoverer is implemented by objects that report their relationships.
// Discover is called at most once per object and engine. Errors abort
// [Engine.Discover] and are returned verbatim.
type Discoverer interface {
	Discover(s *Sink) error
}

// Edge is one adjacency entry of a [Node].
type Edge struct {
	Node     *Node
	Physical bool
}

type edge struct {
	to       int
	physical bool
}

// Node wraps one tracked object. Nodes are owned by their engine and live
// only as long as it does.
type Node struct {
	obj        Object
	chain      keychain.KeyChain
	idx        int
	ancestors  []edge
	children   []edge
	engine     *Engine
	Discovered bool
}

// Object returns the wrapped object.
func (n *Node) Object() Object { return n.obj }

// KeyChain returns the chain the node was registered under.
func (n *Node) KeyChain() keychain.KeyChain { return n.chain }

// AncestorEdges returns every ancestor edge in insertion order.
func (n *Node) AncestorEdges() []Edge { return n.engine.edges(n.ancestors) }

// ChildEdges returns every child edge in insertion order.
func (n *Node) ChildEdges() []Edge { return n.engine.edges(n.children) }

// Engine discovers the relationships among a set of objects and orders
// them. An Engine serves one operation: it is not safe for concurrent use
// and must be discarded after [Engine.Discover] fails.
type Engine struct {
	intent  Intent
	mode    Mode
	nodes   []*Node
	index   map[uint64][]int
	queue   []int
	current int
	logger  *log.Logger
}

// Option configures an [Engine].
type Option func(*Engine)

// WithMode sets the discovery mode reported to objects. The default is
// [ModeFull].
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an empty engine for the given intent.
func New(intent Intent, opts ...Option) *Engine {
	e := &Engine{
		intent:  intent,
		mode:    ModeFull,
		index:   make(map[uint64][]int),
		current: -1,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Intent returns the operation the engine was created for.
func (e *Engine) Intent() Intent { return e.intent }

// Mode returns the discovery mode.
func (e *Engine) Mode() Mode { return e.mode }

// Len returns the number of nodes.
func (e *Engine) Len() int { return len(e.nodes) }

// Nodes returns all nodes in insertion order.
func (e *Engine) Nodes() []*Node { return append([]*Node(nil), e.nodes...) }

// Lookup returns the node registered for obj's chain.
func (e *Engine) Lookup(obj Object) (*Node, bool) {
	if obj == nil {
		return nil, false
	}
	idx := e.find(obj.KeyChain())
	if idx < 0 {
		return nil, false
	}
	return e.nodes[idx], true
}

// AddRoot inserts obj as an isolated node and queues it for discovery.
func (e *Engine) AddRoot(obj Object) *Node { return e.Add(obj) }

// Add inserts obj as an isolated node if it is not yet present. New nodes
// are queued for discovery unless they are the node whose callback is
// currently running. Objects without a chain are ignored and yield nil.
func (e *Engine) Add(obj Object) *Node {
	idx := e.ensure(obj)
	if idx < 0 {
		return nil
	}
	return e.nodes[idx]
}

// Link records that child relates to parent. It does nothing when either
// endpoint is nil or has no chain, so optional references that did not
// resolve can be passed through unchecked. Both endpoints are inserted if
// missing. WeakReference relations insert the endpoints but store no edge.
func (e *Engine) Link(parent, child Object, rel Relation) {
	if isAbsent(parent) || isAbsent(child) {
		return
	}
	p := e.ensure(parent)
	c := e.ensure(child)
	if rel == WeakReference {
		return
	}
	physical := rel.IsPhysical()
	e.nodes[c].ancestors = addEdge(e.nodes[c].ancestors, p, physical)
	e.nodes[p].children = addEdge(e.nodes[p].children, c, physical)
}

// Invalidate rebuilds the chain index. Call it after a rename or move
// mutated the chain of any tracked object.
func (e *Engine) Invalidate() {
	e.index = make(map[uint64][]int, len(e.nodes))
	for i, n := range e.nodes {
		h := n.chain.Hash()
		e.index[h] = append(e.index[h], i)
	}
}

// Discover drains the work queue, invoking each undiscovered object's
// [Discoverer] callback. Every processed node ends with Discovered set,
// whether or not it reported relations. The first callback error is
// returned as is and leaves the engine unusable.
func (e *Engine) Discover(ctx context.Context) (err error) {
	start := time.Now()
	hooks := observability.Graph()
	ctx = hooks.OnDiscoverStart(ctx, e.intent.String())
	defer func() {
		hooks.OnDiscoverComplete(ctx, e.intent.String(), len(e.nodes), time.Since(start), err)
	}()

	for len(e.queue) > 0 {
		idx := e.queue[0]
		e.queue = e.queue[1:]
		n := e.nodes[idx]
		if n.Discovered {
			continue
		}
		if d, ok := n.obj.(Discoverer); ok {
			e.current = idx
			err := d.Discover(&Sink{ctx: ctx, engine: e, current: idx})
			e.current = -1
			if err != nil {
				return err
			}
		}
		n.Discovered = true
		e.logger.Debug("discovered", "chain", n.chain.String(), "children", len(n.children), "ancestors", len(n.ancestors))
	}
	return nil
}

// Build creates an engine for intent, registers roots and discovers
// their graph.
func Build(ctx context.Context, intent Intent, roots []Object, opts ...Option) (*Engine, error) {
	e := New(intent, opts...)
	for _, r := range roots {
		e.AddRoot(r)
	}
	if err := e.Discover(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) ensure(obj Object) int {
	if isAbsent(obj) {
		return -1
	}
	kc := obj.KeyChain()
	if idx := e.find(kc); idx >= 0 {
		return idx
	}
	idx := len(e.nodes)
	e.nodes = append(e.nodes, &Node{obj: obj, chain: kc, idx: idx, engine: e})
	h := kc.Hash()
	e.index[h] = append(e.index[h], idx)
	if idx != e.current {
		e.queue = append(e.queue, idx)
	}
	return idx
}

func (e *Engine) find(kc keychain.KeyChain) int {
	if kc.IsZero() {
		return -1
	}
	for _, idx := range e.index[kc.Hash()] {
		if e.nodes[idx].chain.ClientEquals(kc) {
			return idx
		}
	}
	return -1
}

func (e *Engine) edges(list []edge) []Edge {
	out := make([]Edge, len(list))
	for i, ed := range list {
		out[i] = Edge{Node: e.nodes[ed.to], Physical: ed.physical}
	}
	return out
}

func addEdge(list []edge, to int, physical bool) []edge {
	for i := range list {
		if list[i].to == to {
			list[i].physical = list[i].physical || physical
			return list
		}
	}
	return append(list, edge{to: to, physical: physical})
}

func isAbsent(obj Object) bool {
	return obj == nil || obj.KeyChain().IsZero()
}
