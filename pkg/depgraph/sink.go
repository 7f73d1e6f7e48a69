package depgraph

import "context"

// Sink is the edge-adding capability handed to [Discoverer.Discover]. It is
// bound to the node whose callback is running and is valid only for the
// duration of that call.
type Sink struct {
	ctx     context.Context
	engine  *Engine
	current int
}

// Context returns the context passed to [Engine.Discover].
func (s *Sink) Context() context.Context { return s.ctx }

// Intent returns the operation the engine runs for.
func (s *Sink) Intent() Intent { return s.engine.intent }

// Mode returns the discovery mode.
func (s *Sink) Mode() Mode { return s.engine.mode }

// Add reports a relation between the calling object and target. With
// [Inbound] the caller is the parent; with [Outbound] the caller is the
// child; with [None] only the target node is registered. When discovered is
// set the target is marked as already discovered and its own callback is
// skipped.
func (s *Sink) Add(dir Direction, target Object, rel Relation, discovered bool) {
	if isAbsent(target) {
		return
	}
	self := s.engine.nodes[s.current].obj
	switch dir {
	case Inbound:
		s.engine.Link(self, target, rel)
	case Outbound:
		s.engine.Link(target, self, rel)
	default:
		s.engine.Add(target)
	}
	if discovered {
		if idx := s.engine.find(target.KeyChain()); idx >= 0 {
			s.engine.nodes[idx].Discovered = true
		}
	}
}

// AddAll reports the same relation to every target.
func (s *Sink) AddAll(dir Direction, rel Relation, discovered bool, targets ...Object) {
	for _, t := range targets {
		s.Add(dir, t, rel, discovered)
	}
}
