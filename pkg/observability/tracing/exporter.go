package tracing

import (
	"context"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// LogExporter writes finished spans to a logger at debug level.
type LogExporter struct {
	logger *log.Logger
}

// NewLogExporter creates an exporter writing to logger.
func NewLogExporter(logger *log.Logger) *LogExporter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogExporter{logger: logger}
}

// ExportSpans logs each span with its duration, status and attributes.
func (e *LogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		kv := []any{
			"trace", s.SpanContext().TraceID().String(),
			"span", s.SpanContext().SpanID().String(),
			"duration", s.EndTime().Sub(s.StartTime()),
			"status", s.Status().Code.String(),
		}
		for _, a := range s.Attributes() {
			kv = append(kv, string(a.Key), a.Value.Emit())
		}
		e.logger.Debug(s.Name(), kv...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (e *LogExporter) Shutdown(context.Context) error { return nil }

// NewLogTracerProvider returns a provider that exports every span to
// logger as soon as it ends.
func NewLogTracerProvider(logger *log.Logger) *sdktrace.TracerProvider {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String("keygraph")))
	if err != nil {
		res = resource.Default()
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(NewLogExporter(logger))),
		sdktrace.WithResource(res),
	)
}
