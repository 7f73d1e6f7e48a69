// Package dot renders a discovered dependency graph as a Graphviz diagram.
//
// # Usage
//
// Discover a graph, convert it to DOT, then render to SVG:
//
//	eng := depgraph.New(depgraph.IntentCreate)
//	eng.AddRoot(server)
//	_ = eng.Discover(ctx)
//	src := dot.ToDOT(eng, dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Containment edges are drawn solid; reference edges are dashed. Nodes
// are labelled with their key values, or their type for singletons.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering; no Graphviz installation is needed.
package dot
