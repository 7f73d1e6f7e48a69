package keychain

import (
	"errors"
	"strings"
)

var (
	// ErrZeroChain is returned when a mutation is attempted on a chain that
	// was never constructed.
	ErrZeroChain = errors.New("keychain: zero chain")

	// ErrForeignTree is returned when two chains from different trees are
	// linked together.
	ErrForeignTree = errors.New("keychain: chains belong to different trees")

	// ErrCycle is returned when a move would make a chain its own ancestor.
	ErrCycle = errors.New("keychain: move would create a cycle")

	// ErrMoveRoot is returned when the root level is moved.
	ErrMoveRoot = errors.New("keychain: cannot move the root")

	// ErrKeyType is returned when a rename changes the key's type.
	ErrKeyType = errors.New("keychain: key type mismatch")
)

// Tree is the arena that owns every chain level of one domain instance.
//
// Chains are lightweight handles (tree pointer plus level index), so a
// mutation of a level through [KeyChain.SetLeafKey] or [KeyChain.SetParent]
// is observed by every handle that refers to that level or to any level
// below it.
type Tree struct {
	domain   string
	instance string
	levels   []level
}

type level struct {
	key    Key
	parent int // -1 for the root
}

// NewRoot creates a new tree for the named domain instance and returns the
// chain of its root object.
func NewRoot(domainName, instanceName string, root Key) KeyChain {
	t := &Tree{domain: domainName, instance: instanceName}
	t.levels = append(t.levels, level{key: root, parent: -1})
	return KeyChain{tree: t, idx: 0}
}

// DomainName returns the logical domain name, e.g. "Catalog".
func (t *Tree) DomainName() string { return t.domain }

// InstanceName returns the logical domain instance name, e.g. a server name.
func (t *Tree) InstanceName() string { return t.instance }

// Len returns the number of levels allocated in the tree.
func (t *Tree) Len() int { return len(t.levels) }

// KeyChain is the identity of one object: the sequence of keys from the
// domain root down to the object.
//
// The zero value is not a valid chain; use [NewRoot] and [KeyChain.Child].
// KeyChain values are comparable; == is reference identity (same tree,
// same level), not key equality.
type KeyChain struct {
	tree *Tree
	idx  int
}

// IsZero reports whether c was never constructed.
func (c KeyChain) IsZero() bool { return c.tree == nil }

// Tree returns the arena owning c.
func (c KeyChain) Tree() *Tree { return c.tree }

// Key returns the leaf key of c.
func (c KeyChain) Key() Key {
	if c.tree == nil {
		return nil
	}
	return c.tree.levels[c.idx].key
}

// IsRoot reports whether c is the domain root.
func (c KeyChain) IsRoot() bool {
	return c.tree != nil && c.tree.levels[c.idx].parent < 0
}

// Parent returns the chain one level up. The second result is false for
// the root and for the zero chain.
func (c KeyChain) Parent() (KeyChain, bool) {
	if c.tree == nil {
		return KeyChain{}, false
	}
	p := c.tree.levels[c.idx].parent
	if p < 0 {
		return KeyChain{}, false
	}
	return KeyChain{tree: c.tree, idx: p}, true
}

// Root returns the domain root of c.
func (c KeyChain) Root() KeyChain {
	if c.tree == nil {
		return c
	}
	return KeyChain{tree: c.tree, idx: 0}
}

// Depth returns the number of levels in c, counting the root.
func (c KeyChain) Depth() int {
	if c.tree == nil {
		return 0
	}
	n := 0
	for i := c.idx; i >= 0; i = c.tree.levels[i].parent {
		n++
	}
	return n
}

// Child returns a new chain one level below c. The new level is allocated
// in c's tree even when an equal chain already exists.
func (c KeyChain) Child(k Key) KeyChain {
	if c.tree == nil {
		return c
	}
	c.tree.levels = append(c.tree.levels, level{key: k, parent: c.idx})
	return KeyChain{tree: c.tree, idx: len(c.tree.levels) - 1}
}

// Keys returns the keys of c from the root down.
func (c KeyChain) Keys() []Key {
	if c.tree == nil {
		return nil
	}
	keys := make([]Key, c.Depth())
	i := len(keys) - 1
	for n := c.idx; n >= 0; n = c.tree.levels[n].parent {
		keys[i] = c.tree.levels[n].key
		i--
	}
	return keys
}

// ClientEquals reports whether c and d belong to the same in-memory tree
// and carry equal keys at every level below the root.
func (c KeyChain) ClientEquals(d KeyChain) bool {
	if c == d {
		return c.tree != nil
	}
	if c.tree == nil || c.tree != d.tree {
		return false
	}
	return bodyEquals(c, d)
}

// ServerEquals reports whether c and d name the same logical domain
// instance and carry equal keys at every level below the root. The chains
// may live in different trees.
func (c KeyChain) ServerEquals(d KeyChain) bool {
	if !sameInstance(c, d) {
		return false
	}
	return bodyEquals(c, d)
}

// IsClientAncestorOf reports whether c is a strict ancestor of d within the
// same tree. A chain is its own ancestor only through reference identity.
func (c KeyChain) IsClientAncestorOf(d KeyChain) bool {
	if c == d {
		return c.tree != nil
	}
	if c.tree == nil || c.tree != d.tree {
		return false
	}
	return bodyAncestor(c, d)
}

// IsServerAncestorOf reports whether c is a strict ancestor of d within
// the same logical domain instance.
func (c KeyChain) IsServerAncestorOf(d KeyChain) bool {
	if c == d {
		return c.tree != nil
	}
	if !sameInstance(c, d) {
		return false
	}
	return bodyAncestor(c, d)
}

// Hash returns the XOR of the key hashes below the root. The root level is
// left out, as in the equality tests, so chains with equal keys below the
// root hash alike across trees and instances.
func (c KeyChain) Hash() uint64 {
	if c.tree == nil {
		return 0
	}
	var h uint64
	for n := c.idx; c.tree.levels[n].parent >= 0; n = c.tree.levels[n].parent {
		h ^= c.tree.levels[n].key.Hash()
	}
	return h
}

// String joins the URN fragments of c from the root down with "/".
func (c KeyChain) String() string {
	keys := c.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Fragment()
	}
	return strings.Join(parts, "/")
}

// SetLeafKey replaces the key of c's own level in place. It is the identity
// half of a rename: every handle to c and to any chain below it observes
// the new key immediately, so callers must invalidate any lookup table
// keyed by those chains.
func (c KeyChain) SetLeafKey(k Key) error {
	if c.tree == nil {
		return ErrZeroChain
	}
	if k.TypeName() != c.Key().TypeName() {
		return ErrKeyType
	}
	c.tree.levels[c.idx].key = k
	return nil
}

// SetParent relinks c's level under parent in place. It is the identity
// half of a move: every handle to c and to any chain below it observes the
// new ancestry immediately, so callers must invalidate any lookup table
// keyed by those chains.
func (c KeyChain) SetParent(parent KeyChain) error {
	if c.tree == nil || parent.tree == nil {
		return ErrZeroChain
	}
	if c.tree != parent.tree {
		return ErrForeignTree
	}
	if c.IsRoot() {
		return ErrMoveRoot
	}
	for n := parent.idx; n >= 0; n = c.tree.levels[n].parent {
		if n == c.idx {
			return ErrCycle
		}
	}
	c.tree.levels[c.idx].parent = parent.idx
	return nil
}

func sameInstance(c, d KeyChain) bool {
	if c.tree == nil || d.tree == nil {
		return false
	}
	return c.tree.domain == d.tree.domain && c.tree.instance == d.tree.instance
}

// bodyEquals compares two chains of equal depth level by level, skipping
// the root.
func bodyEquals(c, d KeyChain) bool {
	if c.Depth() != d.Depth() {
		return false
	}
	for !c.IsRoot() {
		if !c.Key().Equal(d.Key()) {
			return false
		}
		c, _ = c.Parent()
		d, _ = d.Parent()
	}
	return true
}

// bodyAncestor reports whether the keys of c are a strict top-down prefix
// of the keys of d, ignoring the root level.
func bodyAncestor(c, d KeyChain) bool {
	ck, dk := c.Keys(), d.Keys()
	if len(ck) >= len(dk) {
		return false
	}
	for i := 1; i < len(ck); i++ {
		if !ck[i].Equal(dk[i]) {
			return false
		}
	}
	return true
}
