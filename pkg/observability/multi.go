package observability

import (
	"context"
	"time"
)

// Hooks is implemented by backends that observe every event category.
type Hooks interface {
	GraphHooks
	SerializerHooks
	StoreHooks
}

// Install registers hs as the graph, serializer and store hooks. With
// more than one backend every event is delivered to each in order; start
// hooks thread the context through all of them.
func Install(hs ...Hooks) {
	switch len(hs) {
	case 0:
		return
	case 1:
		SetGraphHooks(hs[0])
		SetSerializerHooks(hs[0])
		SetStoreHooks(hs[0])
	default:
		m := multi(hs)
		SetGraphHooks(m)
		SetSerializerHooks(m)
		SetStoreHooks(m)
	}
}

type multi []Hooks

func (m multi) OnDiscoverStart(ctx context.Context, intent string) context.Context {
	for _, h := range m {
		ctx = h.OnDiscoverStart(ctx, intent)
	}
	return ctx
}

func (m multi) OnDiscoverComplete(ctx context.Context, intent string, nodes int, d time.Duration, err error) {
	for _, h := range m {
		h.OnDiscoverComplete(ctx, intent, nodes, d, err)
	}
}

func (m multi) OnWriteStart(ctx context.Context, root string) context.Context {
	for _, h := range m {
		ctx = h.OnWriteStart(ctx, root)
	}
	return ctx
}

func (m multi) OnWriteComplete(ctx context.Context, root string, objects int, d time.Duration, err error) {
	for _, h := range m {
		h.OnWriteComplete(ctx, root, objects, d, err)
	}
}

func (m multi) OnReadStart(ctx context.Context) context.Context {
	for _, h := range m {
		ctx = h.OnReadStart(ctx)
	}
	return ctx
}

func (m multi) OnReadComplete(ctx context.Context, objects, fileVersion int, upgraded bool, d time.Duration, err error) {
	for _, h := range m {
		h.OnReadComplete(ctx, objects, fileVersion, upgraded, d, err)
	}
}

func (m multi) OnGet(ctx context.Context, driver string, found bool, d time.Duration) {
	for _, h := range m {
		h.OnGet(ctx, driver, found, d)
	}
}

func (m multi) OnPut(ctx context.Context, driver string, size int, d time.Duration, err error) {
	for _, h := range m {
		h.OnPut(ctx, driver, size, d, err)
	}
}

func (m multi) OnDelete(ctx context.Context, driver string, err error) {
	for _, h := range m {
		h.OnDelete(ctx, driver, err)
	}
}
