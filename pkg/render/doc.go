// Package render groups visualization of dependency graphs.
//
// The [dot] subpackage writes a discovered graph as Graphviz source and
// renders it to SVG with an embedded Graphviz build, so no external
// binary is needed:
//
//	src := dot.ToDOT(engine, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// [dot]: github.com/matzehuels/keygraph/pkg/render/dot
package render
