// Package storetest checks that a document store behaves like every other
// backend.
package storetest

import (
	"bytes"
	"context"
	"testing"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/store"
)

// Run exercises s. The store must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		if _, err := s.Get(ctx, "nothing"); !kerrors.Is(err, kerrors.ErrCodeNotFound) {
			t.Errorf("Get() error = %v, want NOT_FOUND", err)
		}
		if err := s.Delete(ctx, "nothing"); err != nil {
			t.Errorf("Delete() of missing document error = %v", err)
		}
	})

	t.Run("put get list delete", func(t *testing.T) {
		docs := map[string][]byte{
			"prod.xml":    []byte(`<model>prod</model>`),
			"staging.xml": []byte(`<model>staging</model>`),
		}
		for name, data := range docs {
			if err := s.Put(ctx, name, data); err != nil {
				t.Fatalf("Put(%s) error = %v", name, err)
			}
		}
		for name, want := range docs {
			got, err := s.Get(ctx, name)
			if err != nil {
				t.Fatalf("Get(%s) error = %v", name, err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Get(%s) = %q, want %q", name, got, want)
			}
		}

		replaced := []byte(`<model>prod v2</model>`)
		if err := s.Put(ctx, "prod.xml", replaced); err != nil {
			t.Fatalf("Put() replace error = %v", err)
		}
		if got, _ := s.Get(ctx, "prod.xml"); !bytes.Equal(got, replaced) {
			t.Errorf("Get() after replace = %q", got)
		}

		infos, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(infos) != 2 || infos[0].Name != "prod.xml" || infos[1].Name != "staging.xml" {
			t.Fatalf("List() = %+v", infos)
		}
		if infos[0].Size != int64(len(replaced)) {
			t.Errorf("Size = %d, want %d", infos[0].Size, len(replaced))
		}
		if infos[0].Updated.IsZero() {
			t.Error("Updated not set")
		}

		if err := s.Delete(ctx, "prod.xml"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := s.Get(ctx, "prod.xml"); !kerrors.Is(err, kerrors.ErrCodeNotFound) {
			t.Errorf("Get() after Delete() error = %v", err)
		}
		infos, _ = s.List(ctx)
		if len(infos) != 1 {
			t.Errorf("List() after Delete() = %+v", infos)
		}
	})

	t.Run("invalid name", func(t *testing.T) {
		for _, name := range []string{"", "../etc", "a/b", ".hidden"} {
			if err := s.Put(ctx, name, []byte("x")); !kerrors.Is(err, kerrors.ErrCodeInvalidInput) {
				t.Errorf("Put(%q) error = %v, want INVALID_INPUT", name, err)
			}
		}
	})
}
