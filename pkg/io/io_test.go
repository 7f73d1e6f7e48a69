package io

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/keygraph/pkg/catalog"
	"github.com/matzehuels/keygraph/pkg/depgraph"
	kerrors "github.com/matzehuels/keygraph/pkg/errors"
)

func discovered(t *testing.T) *depgraph.Engine {
	t.Helper()
	srv, err := catalog.ParseModel([]byte(`
name = "prod"

[[logins]]
name = "app"

[[databases]]
name = "sales"

  [[databases.users]]
  name = "app"
  login = "app"
`))
	if err != nil {
		t.Fatal(err)
	}
	e := depgraph.New(depgraph.IntentCreate, depgraph.WithMode(depgraph.ModeFull))
	e.AddRoot(srv)
	if err := e.Discover(context.Background()); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestFromEngine(t *testing.T) {
	g := FromEngine(discovered(t))
	if g.Intent != "create" || g.Mode != "full" {
		t.Errorf("intent/mode = %s/%s", g.Intent, g.Mode)
	}

	order := make(map[string]int)
	for i, n := range g.Nodes {
		if n.Order != i {
			t.Errorf("node %s order = %d, want %d", n.Path, n.Order, i)
		}
		order[n.Path] = n.Order
	}
	if len(order) != 4 {
		t.Fatalf("nodes = %+v", g.Nodes)
	}
	if g.Nodes[0].Path != "/Server/prod" || g.Nodes[0].URN != "Server[@Name='prod']" || g.Nodes[0].Type != "Server" {
		t.Errorf("first node = %+v", g.Nodes[0])
	}

	var refs int
	for _, e := range g.Edges {
		if order[e.From] >= order[e.To] {
			t.Errorf("edge %s->%s goes backwards", e.From, e.To)
		}
		if e.Kind == KindReference {
			refs++
			if e.From != "/Server/prod/Login/app" || e.To != "/Server/prod/Database/sales/User/app" {
				t.Errorf("reference edge = %+v", e)
			}
		}
	}
	if refs != 1 {
		t.Errorf("reference edges = %d, want 1", refs)
	}
}

func TestRoundTrip(t *testing.T) {
	e := discovered(t)
	path := filepath.Join(t.TempDir(), "deps.json")
	if err := ExportJSON(e, path); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	g, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	want := FromEngine(e)
	if len(g.Nodes) != len(want.Nodes) || len(g.Edges) != len(want.Edges) {
		t.Errorf("imported %d nodes %d edges, want %d %d", len(g.Nodes), len(g.Edges), len(want.Nodes), len(want.Edges))
	}
	var buf bytes.Buffer
	if err := WriteJSON(e, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"kind": "reference"`) {
		t.Error("reference edge kind missing")
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want kerrors.Code
	}{
		{"malformed", `{"nodes": [`, kerrors.ErrCodeInvalidInput},
		{"bad path", `{"nodes": [{"path": "Server"}]}`, kerrors.ErrCodeInvalidIdentity},
		{"duplicate", `{"nodes": [{"path": "/a"}, {"path": "/a"}]}`, kerrors.ErrCodeDuplicatePath},
		{"unknown node", `{"nodes": [{"path": "/a"}], "edges": [{"from": "/a", "to": "/b", "kind": "child"}]}`, kerrors.ErrCodeInvalidInput},
		{"unknown kind", `{"nodes": [{"path": "/a"}, {"path": "/b"}], "edges": [{"from": "/a", "to": "/b", "kind": "owns"}]}`, kerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.in))
			if !kerrors.Is(err, tt.want) {
				t.Errorf("ReadJSON() error = %v, want %s", err, tt.want)
			}
		})
	}
}
