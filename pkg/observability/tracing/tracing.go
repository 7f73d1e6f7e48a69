// Package tracing implements the observability hooks with OpenTelemetry
// spans.
//
// Discovery, document writes and document reads each open a span in the
// start hook and end it in the matching completion hook. Store accesses
// report only on completion and are recorded as spans back-dated by
// their duration.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/keygraph/pkg/observability"
)

const instrumentation = "github.com/matzehuels/keygraph"

// Hooks opens spans for graph, serializer and store events.
type Hooks struct {
	tracer trace.Tracer
}

// NewHooks creates hooks that trace with tp. A nil tp uses the global
// provider.
func NewHooks(tp trace.TracerProvider) *Hooks {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Hooks{tracer: tp.Tracer(instrumentation)}
}

// Install registers h as the only observability backend.
func (h *Hooks) Install() { observability.Install(h) }

func end(span trace.Span, err error, opts ...trace.SpanEndOption) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(opts...)
}

func (h *Hooks) OnDiscoverStart(ctx context.Context, intent string) context.Context {
	ctx, _ = h.tracer.Start(ctx, "depgraph.discover", trace.WithAttributes(attribute.String("keygraph.intent", intent)))
	return ctx
}

func (h *Hooks) OnDiscoverComplete(ctx context.Context, _ string, nodes int, _ time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int("keygraph.nodes", nodes))
	end(span, err)
}

func (h *Hooks) OnWriteStart(ctx context.Context, root string) context.Context {
	ctx, _ = h.tracer.Start(ctx, "serial.write", trace.WithAttributes(attribute.String("keygraph.root", root)))
	return ctx
}

func (h *Hooks) OnWriteComplete(ctx context.Context, _ string, objects int, _ time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int("keygraph.objects", objects))
	end(span, err)
}

func (h *Hooks) OnReadStart(ctx context.Context) context.Context {
	ctx, _ = h.tracer.Start(ctx, "serial.read")
	return ctx
}

func (h *Hooks) OnReadComplete(ctx context.Context, objects int, fileVersion int, upgraded bool, _ time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("keygraph.objects", objects),
		attribute.Int("keygraph.file_version", fileVersion),
		attribute.Bool("keygraph.upgraded", upgraded),
	)
	end(span, err)
}

func (h *Hooks) storeSpan(ctx context.Context, op, driver string, d time.Duration, err error, attrs ...attribute.KeyValue) {
	now := time.Now()
	attrs = append(attrs, attribute.String("keygraph.store.driver", driver))
	_, span := h.tracer.Start(ctx, "store."+op,
		trace.WithTimestamp(now.Add(-d)),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
	end(span, err, trace.WithTimestamp(now))
}

func (h *Hooks) OnGet(ctx context.Context, driver string, found bool, d time.Duration) {
	h.storeSpan(ctx, "get", driver, d, nil, attribute.Bool("keygraph.store.found", found))
}

func (h *Hooks) OnPut(ctx context.Context, driver string, size int, d time.Duration, err error) {
	h.storeSpan(ctx, "put", driver, d, err, attribute.Int("keygraph.store.size", size))
}

func (h *Hooks) OnDelete(ctx context.Context, driver string, err error) {
	h.storeSpan(ctx, "delete", driver, 0, err)
}

var _ observability.Hooks = (*Hooks)(nil)
