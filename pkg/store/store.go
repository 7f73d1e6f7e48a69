// Package store archives serialized documents by name.
//
// A [Store] holds opaque document bytes; it never parses them. Backends:
//
//   - [MemoryStore]: in-process map for tests and the HTTP server default
//   - [FileStore]: one JSON entry per document below a directory
//   - redis, mongo, s3 and sqlite subpackages for shared deployments
//
// Names are validated by [ValidateName] before any backend is touched, so
// every backend accepts the same set of names. Wrap a backend with
// [Instrument] to report accesses to the registered observability hooks.
package store

import (
	"context"
	"regexp"
	"time"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
	"github.com/matzehuels/keygraph/pkg/observability"
)

// Info describes one stored document.
type Info struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Updated time.Time `json:"updated"`
}

// Store is the interface for document archive backends.
type Store interface {
	// Get returns the document stored under name. A missing document
	// yields a NOT_FOUND error.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put stores data under name, replacing any previous document.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a document. Deleting a missing document is not an
	// error.
	Delete(ctx context.Context, name string) error

	// List returns all documents sorted by name.
	List(ctx context.Context) ([]Info, error)

	// Close releases backend resources.
	Close() error
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]{0,127}$`)

// ValidateName checks that name is usable as a document name on every
// backend: 1 to 128 letters, digits, ".", "_" or "-", not starting with
// a dot.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return kerrors.New(kerrors.ErrCodeInvalidInput, "invalid document name %q", name)
	}
	return nil
}

// NotFound returns the error reported for a missing document.
func NotFound(name string) error {
	return kerrors.New(kerrors.ErrCodeNotFound, "document %q not found", name)
}

// Instrument wraps s so that every access is reported to
// [observability.Store] under driver.
func Instrument(s Store, driver string) Store {
	return &instrumented{Store: s, driver: driver}
}

type instrumented struct {
	Store
	driver string
}

func (s *instrumented) Get(ctx context.Context, name string) ([]byte, error) {
	start := time.Now()
	data, err := s.Store.Get(ctx, name)
	observability.Store().OnGet(ctx, s.driver, err == nil, time.Since(start))
	return data, err
}

func (s *instrumented) Put(ctx context.Context, name string, data []byte) error {
	start := time.Now()
	err := s.Store.Put(ctx, name, data)
	observability.Store().OnPut(ctx, s.driver, len(data), time.Since(start), err)
	return err
}

func (s *instrumented) Delete(ctx context.Context, name string) error {
	err := s.Store.Delete(ctx, name)
	observability.Store().OnDelete(ctx, s.driver, err)
	return err
}
