package metadata

import (
	"errors"
	"fmt"
	"reflect"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
)

// ErrPropertyNotAvailable is returned by setters for properties that exist
// in the schema but are not supported by the current instance, e.g. a
// feature introduced in a later server version. Readers skip such values.
var ErrPropertyNotAvailable = errors.New("property not available")

// Registry maps types to their schemas. Build it once at startup; lookups
// are safe for concurrent use after that.
type Registry struct {
	schemas []*Schema
	byType  map[reflect.Type]*Schema
	byFull  map[string]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]*Schema),
		byFull: make(map[string]*Schema),
	}
}

// Register adds s. The dynamic type of s.New() identifies instances of s.
func (r *Registry) Register(s *Schema) error {
	if s.Name == "" || s.FullName == "" {
		return fmt.Errorf("register schema: name and full name are required")
	}
	if s.New == nil {
		return fmt.Errorf("register schema %s: factory is required", s.FullName)
	}
	if _, dup := r.byFull[s.FullName]; dup {
		return fmt.Errorf("register schema %s: already registered", s.FullName)
	}
	t := reflect.TypeOf(s.New())
	if _, dup := r.byType[t]; dup {
		return fmt.Errorf("register schema %s: type %s already registered", s.FullName, t)
	}
	r.schemas = append(r.schemas, s)
	r.byType[t] = s
	r.byFull[s.FullName] = s
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(schemas ...*Schema) {
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Of returns the schema of obj's dynamic type.
func (r *Registry) Of(obj any) (*Schema, bool) {
	if obj == nil {
		return nil, false
	}
	s, ok := r.byType[reflect.TypeOf(obj)]
	return s, ok
}

// MustOf returns the schema of obj or a NON_SERIALIZABLE_TYPE error.
func (r *Registry) MustOf(obj any) (*Schema, error) {
	s, ok := r.Of(obj)
	if !ok {
		return nil, kerrors.New(kerrors.ErrCodeNonSerializableType, "no schema for %T", obj)
	}
	return s, nil
}

// ByFullName returns the schema registered under name.
func (r *Registry) ByFullName(name string) (*Schema, bool) {
	s, ok := r.byFull[name]
	return s, ok
}

// ByName returns the first schema registered with the given element name.
func (r *Registry) ByName(name string) (*Schema, bool) {
	for _, s := range r.schemas {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// New constructs an empty instance of the named type.
func (r *Registry) New(fullName string) (any, error) {
	s, ok := r.byFull[fullName]
	if !ok {
		return nil, kerrors.New(kerrors.ErrCodeNonSerializableType, "unknown type %s", fullName)
	}
	return s.New(), nil
}

// Schemas returns all schemas in registration order.
func (r *Registry) Schemas() []*Schema { return append([]*Schema(nil), r.schemas...) }

// Domain describes one object domain: its logical name, the namespace
// qualifier used in documents, its current schema version and its types.
type Domain struct {
	Name      string
	Qualifier string
	Version   int
	Registry  *Registry
}
