package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Graph hooks
	g := NoopGraphHooks{}
	if got := g.OnDiscoverStart(ctx, "serialize"); got != ctx {
		t.Error("OnDiscoverStart should return the given context")
	}
	g.OnDiscoverComplete(ctx, "serialize", 12, time.Second, nil)

	// Serializer hooks
	s := NoopSerializerHooks{}
	if got := s.OnWriteStart(ctx, "/Server/prod"); got != ctx {
		t.Error("OnWriteStart should return the given context")
	}
	s.OnWriteComplete(ctx, "/Server/prod", 12, time.Second, nil)
	if got := s.OnReadStart(ctx); got != ctx {
		t.Error("OnReadStart should return the given context")
	}
	s.OnReadComplete(ctx, 12, 2, false, time.Second, errors.New("boom"))

	// Store hooks
	st := NoopStoreHooks{}
	st.OnGet(ctx, "file", true, time.Millisecond)
	st.OnPut(ctx, "file", 1024, time.Millisecond, nil)
	st.OnDelete(ctx, "file", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Graph().(NoopGraphHooks); !ok {
		t.Error("Graph() should return NoopGraphHooks by default")
	}
	if _, ok := Serializer().(NoopSerializerHooks); !ok {
		t.Error("Serializer() should return NoopSerializerHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}

	// Set custom hooks
	customGraph := &testGraphHooks{}
	SetGraphHooks(customGraph)
	if Graph() != customGraph {
		t.Error("SetGraphHooks should set custom hooks")
	}

	customSerializer := &testSerializerHooks{}
	SetSerializerHooks(customSerializer)
	if Serializer() != customSerializer {
		t.Error("SetSerializerHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Graph().(NoopGraphHooks); !ok {
		t.Error("Reset() should restore NoopGraphHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testSerializerHooks{}
	SetSerializerHooks(custom)

	// Setting nil should be ignored
	SetSerializerHooks(nil)

	if Serializer() != custom {
		t.Error("SetSerializerHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testGraphHooks struct{ NoopGraphHooks }
type testSerializerHooks struct{ NoopSerializerHooks }
type testStoreHooks struct{ NoopStoreHooks }
