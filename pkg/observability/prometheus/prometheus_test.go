package prometheus

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/keygraph/pkg/catalog"
	"github.com/matzehuels/keygraph/pkg/observability"
	"github.com/matzehuels/keygraph/pkg/store"
)

func TestHooksRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHooks(reg)
	ctx := context.Background()

	h.OnDiscoverComplete(ctx, "create", 5, time.Millisecond, nil)
	h.OnDiscoverComplete(ctx, "create", 0, time.Millisecond, errors.New("boom"))
	h.OnWriteComplete(ctx, "/Server/prod", 7, time.Millisecond, nil)
	h.OnReadComplete(ctx, 7, 1, true, time.Millisecond, nil)
	h.OnGet(ctx, "memory", true, time.Millisecond)
	h.OnGet(ctx, "memory", false, time.Millisecond)
	h.OnPut(ctx, "memory", 128, time.Millisecond, nil)
	h.OnDelete(ctx, "memory", nil)

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"discover ok", h.discoverTotal.WithLabelValues("create", "ok"), 1},
		{"discover error", h.discoverTotal.WithLabelValues("create", "error"), 1},
		{"write ok", h.writeTotal.WithLabelValues("ok"), 1},
		{"read upgraded", h.readTotal.WithLabelValues("ok", "true"), 1},
		{"get hit", h.storeOps.WithLabelValues("memory", "get", "hit"), 1},
		{"get miss", h.storeOps.WithLabelValues("memory", "get", "miss"), 1},
		{"put", h.storeOps.WithLabelValues("memory", "put", "ok"), 1},
		{"bytes", h.storeBytes.WithLabelValues("memory"), 128},
		{"delete", h.storeOps.WithLabelValues("memory", "delete", "ok"), 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestInstallCountsRealTraffic(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHooks(reg)
	h.Install()
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	s := catalog.NewSerializer()
	docs := store.Instrument(store.NewMemoryStore(), "memory")

	var buf bytes.Buffer
	if err := s.Write(ctx, &buf, catalog.NewServer("prod")); err != nil {
		t.Fatal(err)
	}
	if err := docs.Put(ctx, "prod.xml", buf.Bytes()); err != nil {
		t.Fatal(err)
	}
	data, err := docs.Get(ctx, "prod.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(ctx, bytes.NewReader(data)); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(h.writeTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("documents written = %v", got)
	}
	if got := testutil.ToFloat64(h.readTotal.WithLabelValues("ok", "false")); got != 1 {
		t.Errorf("documents read = %v", got)
	}
	if got := testutil.ToFloat64(h.discoverTotal.WithLabelValues("serialize", "ok")); got != 1 {
		t.Errorf("discovery passes = %v", got)
	}
	if got := testutil.ToFloat64(h.storeOps.WithLabelValues("memory", "get", "hit")); got != 1 {
		t.Errorf("store hits = %v", got)
	}
	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Errorf("GatherAndCount() = %d, %v", n, err)
	}
}
