// Package prometheus implements the observability hooks with Prometheus
// counters and histograms.
//
//	reg := prometheus.NewRegistry()
//	hooks := kgprom.NewHooks(reg)
//	hooks.Install()
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prometheus

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/keygraph/pkg/observability"
)

const namespace = "keygraph"

// Hooks records graph, serializer and store events. It implements
// [observability.GraphHooks], [observability.SerializerHooks] and
// [observability.StoreHooks].
type Hooks struct {
	discoverTotal    *prometheus.CounterVec
	discoverNodes    prometheus.Histogram
	discoverDuration *prometheus.HistogramVec

	writeTotal    *prometheus.CounterVec
	writeObjects  prometheus.Histogram
	writeDuration prometheus.Histogram

	readTotal    *prometheus.CounterVec
	readDuration prometheus.Histogram

	storeOps      *prometheus.CounterVec
	storeBytes    *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
}

// NewHooks creates the metrics and registers them with reg.
func NewHooks(reg prometheus.Registerer) *Hooks {
	sizes := prometheus.ExponentialBuckets(1, 4, 10)
	h := &Hooks{
		discoverTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discover_total",
			Help:      "Dependency discovery passes by intent and outcome.",
		}, []string{"intent", "outcome"}),
		discoverNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discover_nodes",
			Help:      "Nodes tracked at the end of a discovery pass.",
			Buckets:   sizes,
		}),
		discoverDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discover_duration_seconds",
			Help:      "Duration of dependency discovery passes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),

		writeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_written_total",
			Help:      "Documents written by outcome.",
		}, []string{"outcome"}),
		writeObjects: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_objects",
			Help:      "Objects per written document.",
			Buckets:   sizes,
		}),
		writeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_write_duration_seconds",
			Help:      "Duration of document writes.",
			Buckets:   prometheus.DefBuckets,
		}),

		readTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_read_total",
			Help:      "Documents read by outcome and whether an upgrade ran.",
		}, []string{"outcome", "upgraded"}),
		readDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_read_duration_seconds",
			Help:      "Duration of document reads.",
			Buckets:   prometheus.DefBuckets,
		}),

		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Document store operations by driver, operation and outcome.",
		}, []string{"driver", "op", "outcome"}),
		storeBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_bytes_written_total",
			Help:      "Bytes written to the document store.",
		}, []string{"driver"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_duration_seconds",
			Help:      "Duration of document store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"driver", "op"}),
	}
	reg.MustRegister(
		h.discoverTotal, h.discoverNodes, h.discoverDuration,
		h.writeTotal, h.writeObjects, h.writeDuration,
		h.readTotal, h.readDuration,
		h.storeOps, h.storeBytes, h.storeDuration,
	)
	return h
}

// Install registers h as the only observability backend.
func (h *Hooks) Install() { observability.Install(h) }

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *Hooks) OnDiscoverStart(ctx context.Context, _ string) context.Context { return ctx }

func (h *Hooks) OnDiscoverComplete(_ context.Context, intent string, nodes int, d time.Duration, err error) {
	h.discoverTotal.WithLabelValues(intent, outcome(err)).Inc()
	h.discoverNodes.Observe(float64(nodes))
	h.discoverDuration.WithLabelValues(intent).Observe(d.Seconds())
}

func (h *Hooks) OnWriteStart(ctx context.Context, _ string) context.Context { return ctx }

func (h *Hooks) OnWriteComplete(_ context.Context, _ string, objects int, d time.Duration, err error) {
	h.writeTotal.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		h.writeObjects.Observe(float64(objects))
	}
	h.writeDuration.Observe(d.Seconds())
}

func (h *Hooks) OnReadStart(ctx context.Context) context.Context { return ctx }

func (h *Hooks) OnReadComplete(_ context.Context, _ int, _ int, upgraded bool, d time.Duration, err error) {
	h.readTotal.WithLabelValues(outcome(err), strconv.FormatBool(upgraded)).Inc()
	h.readDuration.Observe(d.Seconds())
}

func (h *Hooks) OnGet(_ context.Context, driver string, found bool, d time.Duration) {
	result := "miss"
	if found {
		result = "hit"
	}
	h.storeOps.WithLabelValues(driver, "get", result).Inc()
	h.storeDuration.WithLabelValues(driver, "get").Observe(d.Seconds())
}

func (h *Hooks) OnPut(_ context.Context, driver string, size int, d time.Duration, err error) {
	h.storeOps.WithLabelValues(driver, "put", outcome(err)).Inc()
	if err == nil {
		h.storeBytes.WithLabelValues(driver).Add(float64(size))
	}
	h.storeDuration.WithLabelValues(driver, "put").Observe(d.Seconds())
}

func (h *Hooks) OnDelete(_ context.Context, driver string, err error) {
	h.storeOps.WithLabelValues(driver, "delete", outcome(err)).Inc()
}

var _ observability.Hooks = (*Hooks)(nil)
