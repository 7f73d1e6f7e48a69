// Package pkg provides the core libraries for keygraph object graphs.
//
// # Overview
//
// Keygraph gives every object of a hierarchy a stable identity, orders
// objects by their relations and writes whole graphs to versioned XML
// documents. The pkg directory is organized into these areas:
//
//  1. [keychain] - identity keys, chains and path escaping
//  2. [depgraph] - dependency discovery and ordering
//  3. [hierarchy] - path table used to rebuild objects from records
//  4. [serial] - document writer and reader with version upgrades
//  5. [store] - document archive backends
//  6. [observability] - metrics and tracing hooks
//
// # Architecture
//
// The typical data flow through keygraph:
//
//	Domain objects (e.g. [catalog])
//	         ↓
//	    [depgraph] package (discover relations, order nodes)
//	         ↓
//	    [serial] package (records + schema definitions)
//	         ↓
//	    XML document → [store]
//
// Reading reverses it: [serial] decodes records, upgrades them when the
// document is older than the domain, and [hierarchy] links each record to
// its parent by path.
//
// # Quick Start
//
//	ser := catalog.NewSerializer()
//	var buf bytes.Buffer
//	if err := ser.Write(ctx, &buf, server); err != nil {
//	    return err
//	}
//	res, err := ser.Read(ctx, &buf)
//
// [keychain]: github.com/matzehuels/keygraph/pkg/keychain
// [depgraph]: github.com/matzehuels/keygraph/pkg/depgraph
// [hierarchy]: github.com/matzehuels/keygraph/pkg/hierarchy
// [serial]: github.com/matzehuels/keygraph/pkg/serial
// [store]: github.com/matzehuels/keygraph/pkg/store
// [observability]: github.com/matzehuels/keygraph/pkg/observability
// [catalog]: github.com/matzehuels/keygraph/pkg/catalog
package pkg
