// Package catalog is a small database-style object domain.
//
// A [Server] owns logins, databases and a singleton [Settings] object. A
// [Database] owns tables, identified by schema and name, and users, which
// refer to a server login. Every object carries a [keychain.KeyChain] in
// its server's arena, so renaming or moving an object is visible in every
// descendant at once.
//
// The types implement [depgraph.Discoverer] and are described to the rest
// of keygraph through [Registry], which makes them serializable with
// [NewSerializer]:
//
//	srv, _ := catalog.LoadModel("prod.toml")
//	err := catalog.NewSerializer().Write(ctx, w, srv)
//
// Version 1 documents are upgraded on read: users referred to their login
// by name only.
package catalog
