package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/keygraph/pkg/depgraph"
	"github.com/matzehuels/keygraph/pkg/keychain"
)

// Edge kinds.
const (
	KindChild     = "child"
	KindReference = "reference"
)

// Graph is the JSON form of a discovered dependency graph.
type Graph struct {
	Intent string `json:"intent"`
	Mode   string `json:"mode"`
	Nodes  []Node `json:"nodes"`
	Edges  []Edge `json:"edges"`
}

// Node is one object of the graph.
type Node struct {
	Path       string `json:"path"`
	URN        string `json:"urn"`
	Type       string `json:"type"`
	Order      int    `json:"order"`
	Discovered bool   `json:"discovered,omitempty"`
}

// Edge connects two nodes by path.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// FromEngine builds the JSON form of e's discovered graph.
func FromEngine(e *depgraph.Engine) *Graph {
	out := &Graph{
		Intent: e.Intent().String(),
		Mode:   e.Mode().String(),
		Nodes:  make([]Node, 0, e.Len()),
	}
	for n := range e.Ordered() {
		chain := n.KeyChain()
		out.Nodes = append(out.Nodes, Node{
			Path:       keychain.Path(chain),
			URN:        chain.String(),
			Type:       chain.Key().TypeName(),
			Order:      len(out.Nodes),
			Discovered: n.Discovered,
		})
		for _, ed := range n.ChildEdges() {
			kind := KindReference
			if ed.Physical {
				kind = KindChild
			}
			out.Edges = append(out.Edges, Edge{
				From: keychain.Path(chain),
				To:   keychain.Path(ed.Node.KeyChain()),
				Kind: kind,
			})
		}
	}
	return out
}

// WriteJSON encodes the discovered graph of e as JSON and writes it to w.
func WriteJSON(e *depgraph.Engine, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromEngine(e)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the discovered graph of e to a JSON file at path.
func ExportJSON(e *depgraph.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(e, f)
}
