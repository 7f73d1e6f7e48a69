package serial

// RecordKind tells what a serialized record carries.
type RecordKind int

const (
	// RecordProperty is a scalar value with its wire type tag.
	RecordProperty RecordKind = iota
	// RecordParent is the path of the owning object.
	RecordParent
	// RecordCollection lists the member paths of a container.
	RecordCollection
	// RecordReference is the path of a soft reference target.
	RecordReference
)

var recordKindNames = [...]string{"property", "parent", "collection", "reference"}

func (k RecordKind) String() string {
	if k < 0 || int(k) >= len(recordKindNames) {
		return "unknown"
	}
	return recordKindNames[k]
}

// Record is one serialized member of an instance, as read from a document
// before it is applied to an object. Upgrade sessions receive the records
// of every instance whose type needs migration.
type Record struct {
	Kind RecordKind
	Name string

	// WireType is the type tag of a property value.
	WireType string

	// Value is the property text with restricted characters restored.
	Value string

	// URIs holds the referenced paths of parent, collection and reference
	// records.
	URIs []string
}

// URI returns the first referenced path, or "" if there is none.
func (r Record) URI() string {
	if len(r.URIs) == 0 {
		return ""
	}
	return r.URIs[0]
}

// Find returns the first record with the given kind and name.
func Find(records []Record, kind RecordKind, name string) (Record, bool) {
	for _, r := range records {
		if r.Kind == kind && r.Name == name {
			return r, true
		}
	}
	return Record{}, false
}
