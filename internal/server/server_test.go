package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/keygraph/internal/config"
	"github.com/matzehuels/keygraph/pkg/catalog"
	kgio "github.com/matzehuels/keygraph/pkg/io"
	kgprom "github.com/matzehuels/keygraph/pkg/observability/prometheus"
	"github.com/matzehuels/keygraph/pkg/store"
)

const model = `
name = "prod"

[[logins]]
name = "app"

[[databases]]
name = "sales"
owner = "app"

  [[databases.tables]]
  schema = "dbo"
  name = "Orders"

  [[databases.users]]
  name = "app"
  login = "app"
`

func document(t *testing.T) []byte {
	t.Helper()
	srv, err := catalog.ParseModel([]byte(model))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := catalog.NewSerializer().Write(context.Background(), &buf, srv); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	s := New(store.NewMemoryStore(), catalog.NewSerializer(), opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t)
	doc := document(t)
	url := ts.URL + "/documents/prod.xml"

	resp, body := do(t, http.MethodPut, url, doc)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("PUT status = %d: %s", resp.StatusCode, body)
	}
	var info DocumentInfo
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatal(err)
	}
	if info.Name != "prod.xml" || info.Root != "/Server/prod" || info.Objects == 0 || info.Upgraded {
		t.Errorf("PUT info = %+v", info)
	}

	resp, body = do(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusOK || !bytes.Equal(body, doc) {
		t.Errorf("GET status = %d, body equal = %v", resp.StatusCode, bytes.Equal(body, doc))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/xml" {
		t.Errorf("Content-Type = %q", ct)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/documents", nil)
	var list struct {
		Documents []store.Info `json:"documents"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || len(list.Documents) != 1 || list.Documents[0].Name != "prod.xml" {
		t.Errorf("list = %d %+v", resp.StatusCode, list)
	}

	resp, _ = do(t, http.MethodDelete, url, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d", resp.StatusCode)
	}
	resp, body = do(t, http.MethodGet, url, nil)
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), "NOT_FOUND") {
		t.Errorf("GET after delete = %d %s", resp.StatusCode, body)
	}
}

func TestPutRejects(t *testing.T) {
	ts := newTestServer(t)
	doc := document(t)

	tests := []struct {
		name   string
		path   string
		body   []byte
		status int
		code   string
	}{
		{"not a document", "/documents/junk.xml", []byte("<nope/>"), http.StatusUnprocessableEntity, "SERIALIZATION"},
		{"truncated", "/documents/half.xml", doc[:len(doc)/2], http.StatusUnprocessableEntity, "SERIALIZATION"},
		{"bad name", "/documents/.hidden", doc, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPut, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
			if !strings.Contains(string(body), tt.code) {
				t.Errorf("body = %s, want code %s", body, tt.code)
			}
		})
	}

	_, body := do(t, http.MethodGet, ts.URL+"/documents", nil)
	if strings.Contains(string(body), "junk.xml") {
		t.Error("rejected document was stored")
	}
}

func TestPutTooLarge(t *testing.T) {
	ts := newTestServer(t, WithMaxDocumentBytes(64))
	resp, _ := do(t, http.MethodPut, ts.URL+"/documents/big.xml", document(t))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestTree(t *testing.T) {
	ts := newTestServer(t)
	do(t, http.MethodPut, ts.URL+"/documents/prod.xml", document(t))

	resp, body := do(t, http.MethodGet, ts.URL+"/documents/prod.xml/tree", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var tree TreeResponse
	if err := json.Unmarshal(body, &tree); err != nil {
		t.Fatal(err)
	}
	if len(tree.Tree) != 1 || tree.Tree[0].Path != "/Server/prod" {
		t.Fatalf("tree = %+v", tree.Tree)
	}
	var paths []string
	kgio.Walk(tree.Tree, func(n *kgio.TreeNode, _ int) { paths = append(paths, n.Path) })
	want := "/Server/prod/Database/sales/Table/dbo.Orders"
	found := false
	for _, p := range paths {
		found = found || p == want
	}
	if !found {
		t.Errorf("tree paths = %v, missing %s", paths, want)
	}
}

func TestGraphJSON(t *testing.T) {
	ts := newTestServer(t)
	do(t, http.MethodPut, ts.URL+"/documents/prod.xml", document(t))

	resp, body := do(t, http.MethodGet, ts.URL+"/documents/prod.xml/graph.json?intent=create", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var g kgio.Graph
	if err := json.Unmarshal(body, &g); err != nil {
		t.Fatal(err)
	}
	if g.Intent != "create" || len(g.Nodes) == 0 || g.Nodes[0].Path != "/Server/prod" {
		t.Errorf("graph = %s %+v", g.Intent, g.Nodes)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/documents/prod.xml/graph.json?intent=explode", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad intent status = %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, ts.URL+"/documents/none.xml/graph.json", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing document status = %d", resp.StatusCode)
	}
}

func TestGraphSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering in short mode")
	}
	ts := newTestServer(t)
	do(t, http.MethodPut, ts.URL+"/documents/prod.xml", document(t))

	resp, body := do(t, http.MethodGet, ts.URL+"/documents/prod.xml/graph.svg", nil)
	if resp.StatusCode != http.StatusOK || !bytes.Contains(body, []byte("<svg")) {
		t.Errorf("status = %d, body = %.80s", resp.StatusCode, body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	kgprom.NewHooks(reg)
	ts := newTestServer(t, WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}
	resp, body = do(t, http.MethodGet, ts.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "keygraph_discover_nodes") {
		t.Errorf("metrics = %d %.200s", resp.StatusCode, body)
	}
}

func TestNoMetricsRoute(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := do(t, http.MethodGet, ts.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRun(t *testing.T) {
	s := New(store.NewMemoryStore(), catalog.NewSerializer(), WithLogger(log.New(io.Discard)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, serverConfig("127.0.0.1:0")) }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v", err)
	}
}

func serverConfig(addr string) config.ServerConfig {
	cfg := config.Default().Server
	cfg.Addr = addr
	return cfg
}
