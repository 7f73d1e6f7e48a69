// Package keychain models hierarchical object identity.
//
// Every managed object is identified by a [KeyChain]: the sequence of
// [Key] values leading from the domain root down to the object. A key names
// one object among the siblings of its type (Login[@Name='sa']); the chain
// names it within a domain instance
// (Server[@Name='prod']/Login[@Name='sa']).
//
// # Trees and Handles
//
// Chain levels live in a [Tree] arena created by [NewRoot]. A [KeyChain] is
// a handle (tree, level index), so chains are cheap to copy and compare.
// Two controlled mutations exist: [KeyChain.SetLeafKey] (rename) and
// [KeyChain.SetParent] (move). Both rewrite a level in place, which every
// handle to that level or to any level below it observes. Code that keeps
// maps keyed by chain hash or path string must rebuild them after either
// mutation.
//
// # Equality
//
// Chains compare in two ways:
//
//   - [KeyChain.ClientEquals]: same in-memory tree and equal keys
//   - [KeyChain.ServerEquals]: same domain name and instance name (possibly
//     different trees) and equal keys
//
// Keys are compared below the root only; the root level is covered by the
// tree or instance check. Ancestor tests follow the same split and are
// strict: a chain is its own ancestor only when the two handles are
// identical.
//
// # Text Forms
//
// [KeyChain.String] renders the URN form parsed by [ParseURN] and
// [FromURN]. [Path] renders the escaped document path form used by the
// serializer, e.g. /Server/prod/Database/sales/Table/dbo.Orders.
package keychain
