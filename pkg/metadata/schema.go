package metadata

import "slices"

// Kind is the role a member plays in a type's schema.
type Kind int

const (
	// Property is a scalar value.
	Property Kind = iota
	// Parent is the link to the owning object.
	Parent
	// ChildContainer is a keyed collection of owned children.
	ChildContainer
	// ObjectContainer is a keyed collection of objects placed under the
	// owner without being discovered as its children.
	ObjectContainer
	// ChildObject is an owned singleton child.
	ChildObject
	// Object is a singleton object placed under the owner.
	Object
	// Reference is a soft link to an object elsewhere in the tree.
	Reference
)

var kindNames = [...]string{"property", "parent", "childcontainer", "objectcontainer", "childobject", "object", "reference"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Flag qualifies a member.
type Flag uint

const (
	// Data marks a persisted property.
	Data Flag = 1 << iota
	// Required marks a property that must be present.
	Required
	// Computed marks a derived property that is never persisted.
	Computed
	// NonSerializable excludes a container or reference from documents.
	NonSerializable
	// Identity marks a key property.
	Identity
)

// Relation describes one member of a type.
type Relation struct {
	Name string
	Kind Kind

	// ElementType is the element type name of the members of a container,
	// of a singleton child or of a reference target.
	ElementType string

	Flags Flag

	// WireType tags property values in documents. Empty means the tag is
	// inferred from the value.
	WireType string

	// Codec overrides the generic value codec for a property.
	Codec Codec

	// Get returns a property value, a singleton child or a reference target.
	Get func(obj any) any

	// Set assigns a property value, a singleton child or a reference target.
	// Members without a setter are read-only.
	Set func(obj, v any) error

	// Members lists the contents of a container.
	Members func(obj any) []any

	// AddMember appends one member to a container.
	AddMember func(obj, member any) error
}

// Has reports whether every bit of f is set.
func (r *Relation) Has(f Flag) bool { return r.Flags&f == f }

// Writable reports whether the member can be assigned.
func (r *Relation) Writable() bool { return r.Set != nil }

// IsContainer reports whether the member is a keyed collection.
func (r *Relation) IsContainer() bool {
	return r.Kind == ChildContainer || r.Kind == ObjectContainer
}

// IsSingleton reports whether the member is a singleton child.
func (r *Relation) IsSingleton() bool {
	return r.Kind == ChildObject || r.Kind == Object
}

// Persisted reports whether a property is written to documents.
func (r *Relation) Persisted() bool {
	return r.Kind == Property && r.Flags&(Data|Required) != 0 && !r.Has(Computed)
}

// Schema is the static description of one type.
type Schema struct {
	// Name is the element type name used in paths and documents.
	Name string

	// FullName is the fully-qualified name the factory is keyed by.
	FullName string

	// Keys lists the identity properties in key order. Types without keys
	// are singletons under their parent.
	Keys []string

	Relations []*Relation

	// New constructs an empty instance.
	New func() any

	// SetParent links obj under parent.
	SetParent func(obj, parent any) error

	// IsSystem reports internal objects that are never written.
	IsSystem func(obj any) bool

	// ParentFirst asks readers to link the parent before any property is
	// assigned.
	ParentFirst bool

	// Dropped lists properties that older documents may carry but the
	// current version no longer has. Their values are ignored on read.
	Dropped []string
}

// HasKeys reports whether instances are named within their parent.
func (s *Schema) HasKeys() bool { return len(s.Keys) > 0 }

// Relation returns the member with the given name.
func (s *Schema) Relation(name string) (*Relation, bool) {
	for _, r := range s.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Properties returns the scalar members in declaration order.
func (s *Schema) Properties() []*Relation { return s.ofKind(Property) }

// References returns the soft reference members in declaration order.
func (s *Schema) References() []*Relation { return s.ofKind(Reference) }

// Containers returns the collection members in declaration order.
func (s *Schema) Containers() []*Relation {
	var out []*Relation
	for _, r := range s.Relations {
		if r.IsContainer() {
			out = append(out, r)
		}
	}
	return out
}

// ContainerFor returns the collection holding elements of the given type.
// When several match, the last declared wins.
func (s *Schema) ContainerFor(elementType string) (*Relation, bool) {
	var found *Relation
	for _, r := range s.Relations {
		if r.IsContainer() && r.ElementType == elementType {
			found = r
		}
	}
	return found, found != nil
}

// SingletonFor returns the singleton member holding the given type.
func (s *Schema) SingletonFor(elementType string) (*Relation, bool) {
	var found *Relation
	for _, r := range s.Relations {
		if r.IsSingleton() && r.ElementType == elementType {
			found = r
		}
	}
	return found, found != nil
}

// IsDropped reports whether name was removed from the type.
func (s *Schema) IsDropped(name string) bool { return slices.Contains(s.Dropped, name) }

// System reports whether obj is an internal object.
func (s *Schema) System(obj any) bool { return s.IsSystem != nil && s.IsSystem(obj) }

func (s *Schema) ofKind(k Kind) []*Relation {
	var out []*Relation
	for _, r := range s.Relations {
		if r.Kind == k {
			out = append(out, r)
		}
	}
	return out
}
