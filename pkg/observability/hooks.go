// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about dependency discovery, document
// serialization and document store access.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Backends live in subpackages: [prometheus] records counters and
// histograms, [tracing] opens OpenTelemetry spans. Start hooks return a
// context so that span-based backends can carry their span to the matching
// completion hook.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.Install(prometheus.NewHooks(reg), tracing.NewHooks(tp))
//	    // ... run application
//	}
//
// Install fans events out to every backend given; the Set functions
// register a single category.
//
// Libraries call hooks to emit events:
//
//	ctx = observability.Serializer().OnWriteStart(ctx, rootPath)
//	// ... write ...
//	observability.Serializer().OnWriteComplete(ctx, rootPath, objects, duration, err)
//
// [prometheus]: github.com/matzehuels/keygraph/pkg/observability/prometheus
// [tracing]: github.com/matzehuels/keygraph/pkg/observability/tracing
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events from the dependency graph engine.
type GraphHooks interface {
	OnDiscoverStart(ctx context.Context, intent string) context.Context
	OnDiscoverComplete(ctx context.Context, intent string, nodes int, duration time.Duration, err error)
}

// =============================================================================
// Serializer Hooks
// =============================================================================

// SerializerHooks receives events from the document serializer.
type SerializerHooks interface {
	// Write events
	OnWriteStart(ctx context.Context, root string) context.Context
	OnWriteComplete(ctx context.Context, root string, objects int, duration time.Duration, err error)

	// Read events
	OnReadStart(ctx context.Context) context.Context
	OnReadComplete(ctx context.Context, objects int, fileVersion int, upgraded bool, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from document store backends.
type StoreHooks interface {
	// OnGet records a document lookup.
	OnGet(ctx context.Context, driver string, found bool, duration time.Duration)

	// OnPut records a document write.
	OnPut(ctx context.Context, driver string, size int, duration time.Duration, err error)

	// OnDelete records a document removal.
	OnDelete(ctx context.Context, driver string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnDiscoverStart(ctx context.Context, _ string) context.Context { return ctx }
func (NoopGraphHooks) OnDiscoverComplete(context.Context, string, int, time.Duration, error) {
}

// NoopSerializerHooks is a no-op implementation of SerializerHooks.
type NoopSerializerHooks struct{}

func (NoopSerializerHooks) OnWriteStart(ctx context.Context, _ string) context.Context { return ctx }
func (NoopSerializerHooks) OnWriteComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopSerializerHooks) OnReadStart(ctx context.Context) context.Context { return ctx }
func (NoopSerializerHooks) OnReadComplete(context.Context, int, int, bool, time.Duration, error) {
}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnGet(context.Context, string, bool, time.Duration)       {}
func (NoopStoreHooks) OnPut(context.Context, string, int, time.Duration, error) {}
func (NoopStoreHooks) OnDelete(context.Context, string, error)                  {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	graphHooks      GraphHooks      = NoopGraphHooks{}
	serializerHooks SerializerHooks = NoopSerializerHooks{}
	storeHooks      StoreHooks      = NoopStoreHooks{}
	hooksMu         sync.RWMutex
)

// SetGraphHooks registers custom graph hooks.
// This should be called once at application startup before any discovery.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// SetSerializerHooks registers custom serializer hooks.
// This should be called once at application startup before any documents
// are read or written.
func SetSerializerHooks(h SerializerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serializerHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store access.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Serializer returns the registered serializer hooks.
func Serializer() SerializerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serializerHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	graphHooks = NoopGraphHooks{}
	serializerHooks = NoopSerializerHooks{}
	storeHooks = NoopStoreHooks{}
}
