// Package hierarchy rebuilds an object tree from a flat table of paths.
//
// Documents store every object flat, each tagged with its path. While a
// document is read, objects are recorded in a [Cache] in document order;
// the order carries no hierarchy. [Cache.CreateHierarchy] then places each
// path under its parent, parent first, and fills the parents' collections
// and singleton members through the metadata registry.
//
// # Path Levels
//
// A path alternates type and name fragments for keyed types, while
// singleton types contribute a type fragment only:
//
//	/Server/Database/sales/Settings
//
// The cache learns which types are keyed from the objects it holds, so a
// fragment is read as a name only when the fragment before it names a
// keyed type.
//
// # Islands
//
// Paths that do not lie under the root are grouped by ancestry into
// islands. The top object of every island is returned to the caller as
// unparented.
package hierarchy
