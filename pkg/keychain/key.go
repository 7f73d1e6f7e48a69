package keychain

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key identifies one object among the siblings of its type at one level of
// a domain tree. Keys are immutable values.
type Key interface {
	// TypeName is the element type of the identified object, e.g. "Login".
	TypeName() string

	// Equal reports value equality with another key.
	Equal(other Key) bool

	// Hash returns a stable hash of the key's type and identity fields.
	Hash() uint64

	// Fragment renders the key as a URN fragment, e.g. Login[@Name='sa'].
	Fragment() string

	// Values returns the identity field values in key order. Singleton keys
	// return nil.
	Values() []string
}

// NamedKey identifies an object by a single Name field.
type NamedKey struct {
	Type string
	Name string
}

func (k NamedKey) TypeName() string { return k.Type }

func (k NamedKey) Equal(other Key) bool {
	o, ok := other.(NamedKey)
	return ok && o == k
}

func (k NamedKey) Hash() uint64 { return hashFields(k.Type, k.Name) }

func (k NamedKey) Fragment() string {
	return k.Type + "[@Name=" + quote(k.Name) + "]"
}

func (k NamedKey) Values() []string { return []string{k.Name} }

// SchemaNamedKey identifies an object by a Name scoped to a Schema.
type SchemaNamedKey struct {
	Type   string
	Name   string
	Schema string
}

func (k SchemaNamedKey) TypeName() string { return k.Type }

func (k SchemaNamedKey) Equal(other Key) bool {
	o, ok := other.(SchemaNamedKey)
	return ok && o == k
}

func (k SchemaNamedKey) Hash() uint64 { return hashFields(k.Type, k.Schema, k.Name) }

func (k SchemaNamedKey) Fragment() string {
	return k.Type + "[@Name=" + quote(k.Name) + " and @Schema=" + quote(k.Schema) + "]"
}

// Values returns the schema before the name, matching the dotted
// schema.name notation used in paths.
func (k SchemaNamedKey) Values() []string { return []string{k.Schema, k.Name} }

// SingletonKey identifies the only object of its type under a parent.
type SingletonKey struct {
	Type string
}

func (k SingletonKey) TypeName() string { return k.Type }

func (k SingletonKey) Equal(other Key) bool {
	o, ok := other.(SingletonKey)
	return ok && o == k
}

func (k SingletonKey) Hash() uint64 { return hashFields(k.Type) }

func (k SingletonKey) Fragment() string { return k.Type }

func (k SingletonKey) Values() []string { return nil }

func hashFields(fields ...string) uint64 {
	d := xxhash.New()
	for i, f := range fields {
		if i > 0 {
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.WriteString(f)
	}
	return d.Sum64()
}

// quote wraps s in single quotes, doubling embedded quotes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
