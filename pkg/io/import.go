package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
)

// ReadJSON decodes a JSON graph from r.
//
// ReadJSON returns an error if the JSON is malformed, a node path is
// invalid or repeated, an edge names an unknown node or has an unknown
// kind. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "decode graph")
	}

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if err := kerrors.ValidatePath(n.Path); err != nil {
			return nil, fmt.Errorf("node %d: %w", n.Order, err)
		}
		if seen[n.Path] {
			return nil, kerrors.New(kerrors.ErrCodeDuplicatePath, "node %s listed twice", n.Path)
		}
		seen[n.Path] = true
	}
	for _, e := range g.Edges {
		if !seen[e.From] || !seen[e.To] {
			return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "edge %s->%s names an unknown node", e.From, e.To)
		}
		if e.Kind != KindChild && e.Kind != KindReference {
			return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "edge %s->%s has unknown kind %q", e.From, e.To, e.Kind)
		}
	}
	return &g, nil
}

// ImportJSON reads a JSON graph file at path.
func ImportJSON(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
