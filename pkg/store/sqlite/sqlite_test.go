package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/matzehuels/keygraph/pkg/store/storetest"
)

func TestStore(t *testing.T) {
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	storetest.Run(t, s)
}

func TestReopenKeepsDocuments(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "docs.db")

	s, err := New(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "prod.xml", []byte("<model/>")); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = New(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "prod.xml")
	if err != nil || string(got) != "<model/>" {
		t.Errorf("Get() after reopen = %q, %v", got, err)
	}
}
