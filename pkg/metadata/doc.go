// Package metadata is the static schema table of object domains.
//
// Each type is described once by a [Schema]: its element name, identity
// keys, factory and the [Relation] list naming every member together with
// its [Kind] (property, container, singleton child, reference) and flags.
// Accessors are plain functions, so no reflection is needed to read or
// write members; the registry only uses the dynamic type of an instance to
// find its schema.
//
// A [Domain] bundles a registry with the logical version that documents
// are stamped with.
package metadata
