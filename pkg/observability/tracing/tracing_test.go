package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/matzehuels/keygraph/pkg/catalog"
	"github.com/matzehuels/keygraph/pkg/observability"
)

func newRecorder() (*Hooks, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return NewHooks(tp), sr
}

func attr(s sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestWriteSpan(t *testing.T) {
	h, sr := newRecorder()
	ctx := h.OnWriteStart(context.Background(), "/Server/prod")
	h.OnWriteComplete(ctx, "/Server/prod", 3, time.Millisecond, nil)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "serial.write" || s.Status().Code != codes.Ok {
		t.Errorf("span = %s %v", s.Name(), s.Status())
	}
	if v, ok := attr(s, "keygraph.objects"); !ok || v.AsInt64() != 3 {
		t.Errorf("objects attribute = %v", v)
	}
	if v, _ := attr(s, "keygraph.root"); v.AsString() != "/Server/prod" {
		t.Errorf("root attribute = %v", v)
	}
}

func TestErrorStatus(t *testing.T) {
	h, sr := newRecorder()
	ctx := h.OnReadStart(context.Background())
	h.OnReadComplete(ctx, 0, 0, false, time.Millisecond, errors.New("truncated"))

	s := sr.Ended()[0]
	if s.Status().Code != codes.Error || s.Status().Description != "truncated" {
		t.Errorf("status = %v", s.Status())
	}
	if len(s.Events()) == 0 {
		t.Error("error event not recorded")
	}
}

func TestStoreSpanBackdated(t *testing.T) {
	h, sr := newRecorder()
	h.OnGet(context.Background(), "redis", true, 50*time.Millisecond)

	s := sr.Ended()[0]
	if s.Name() != "store.get" {
		t.Errorf("name = %s", s.Name())
	}
	if d := s.EndTime().Sub(s.StartTime()); d < 50*time.Millisecond {
		t.Errorf("span duration = %v, want >= 50ms", d)
	}
	if v, _ := attr(s, "keygraph.store.driver"); v.AsString() != "redis" {
		t.Errorf("driver attribute = %v", v)
	}
}

func TestDiscoverNestsUnderWrite(t *testing.T) {
	h, sr := newRecorder()
	h.Install()
	t.Cleanup(observability.Reset)

	var buf bytes.Buffer
	if err := catalog.NewSerializer().Write(context.Background(), &buf, catalog.NewServer("prod")); err != nil {
		t.Fatal(err)
	}

	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range sr.Ended() {
		byName[s.Name()] = s
	}
	write, ok := byName["serial.write"]
	if !ok {
		t.Fatal("no write span")
	}
	discover, ok := byName["depgraph.discover"]
	if !ok {
		t.Fatal("no discover span")
	}
	if discover.Parent().SpanID() != write.SpanContext().SpanID() {
		t.Error("discover span is not a child of the write span")
	}
}

func TestLogTracerProvider(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)
	tp := NewLogTracerProvider(logger)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	h := NewHooks(tp)
	ctx := h.OnDiscoverStart(context.Background(), "create")
	h.OnDiscoverComplete(ctx, "create", 4, time.Millisecond, nil)

	out := buf.String()
	for _, want := range []string{"depgraph.discover", "keygraph.nodes=4", "keygraph.intent=create"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
