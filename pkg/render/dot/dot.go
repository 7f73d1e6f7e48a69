package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/keygraph/pkg/depgraph"
	kgio "github.com/matzehuels/keygraph/pkg/io"
	"github.com/matzehuels/keygraph/pkg/keychain"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the type name and the discovery state to labels.
	Detailed bool
}

// ToDOT converts the nodes and edges of e to Graphviz DOT source. Nodes
// are identified by their path and emitted in registration order.
func ToDOT(e *depgraph.Engine, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	nodes := e.Nodes()
	for _, n := range nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", keychain.Path(n.KeyChain()), fmtLabel(n, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		from := keychain.Path(n.KeyChain())
		for _, ed := range n.ChildEdges() {
			to := keychain.Path(ed.Node.KeyChain())
			if ed.Physical {
				fmt.Fprintf(&buf, "  %q -> %q;\n", from, to)
			} else {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", from, to)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *depgraph.Node, detailed bool) string {
	k := n.KeyChain().Key()
	label := kgio.Label(k)
	if !detailed {
		return label
	}
	return fmt.Sprintf("%s\ntype: %s\ndiscovered: %t", label, k.TypeName(), n.Discovered)
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz root element with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
