// Package depgraph discovers and orders the relationships among managed
// objects.
//
// # Overview
//
// Bulk operations (create a catalog, drop a database, serialize a server)
// must visit objects so that everything an object depends on comes first.
// The [Engine] builds that graph lazily: callers seed it with one or more
// objects, then [Engine.Discover] asks every object, once, to report its
// relations through a [Sink].
//
//	e := depgraph.New(depgraph.IntentSerialize)
//	e.AddRoot(server)
//	if err := e.Discover(ctx); err != nil {
//	    return err
//	}
//	for n := range e.Ordered() {
//	    write(n.Object())
//	}
//
// # Relations
//
// Edges point from parent to child. [ContainedChild] and [RequiredChild]
// are physical (containment) edges; [StrongReference] orders without
// containment; [WeakReference] only makes the target known and never
// constrains order. Linking with a nil endpoint is a no-op, so optional
// references that did not resolve need no special casing.
//
// # Enumeration
//
// [Engine.List] yields every node once, ancestors before the node and the
// node before its children. It runs on an explicit frame stack and never
// recurses. Reference cycles (including self-loops) are legal: the walk
// still terminates and yields each member once.
//
// [Engine.Roots] with [Node.Children] and [Node.Ancestors] exposes only the
// physical edges, for callers that want to walk the containment tree.
//
// # Identity
//
// Nodes are keyed by [keychain.KeyChain] using client equality. After a
// rename or move mutates a tracked chain, call [Engine.Invalidate] before
// the next lookup.
//
// # Concurrency
//
// An Engine serves a single operation on a single goroutine. The only code
// that runs outside the engine's control is the discovery callback, which
// may block; a callback error aborts [Engine.Discover] and leaves the
// engine unusable.
package depgraph
