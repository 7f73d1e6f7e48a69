package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/keygraph/pkg/store/storetest"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New(context.Background(), Config{URL: "redis://" + mr.Addr(), Prefix: "test:"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore(t *testing.T) {
	s, _ := newTestStore(t)
	storetest.Run(t, s)
}

func TestKeys(t *testing.T) {
	s, mr := newTestStore(t)
	if err := s.Put(context.Background(), "prod.xml", []byte("<model/>")); err != nil {
		t.Fatal(err)
	}
	if got := mr.HGet("test:doc:prod.xml", "data"); got != "<model/>" {
		t.Errorf("hash data = %q", got)
	}
	if ok, _ := mr.SIsMember("test:docs", "prod.xml"); !ok {
		t.Error("name not indexed")
	}
}

func TestListSkipsStaleIndex(t *testing.T) {
	s, mr := newTestStore(t)
	if _, err := mr.SAdd("test:docs", "ghost"); err != nil {
		t.Fatal(err)
	}
	infos, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("List() = %+v, want empty", infos)
	}
}

func TestNewUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := New(context.Background(), Config{URL: "redis://" + addr}); err == nil {
		t.Error("New() against closed server error = nil")
	}
}
