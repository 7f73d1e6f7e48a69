package io

import (
	"strings"

	"github.com/matzehuels/keygraph/pkg/depgraph"
	"github.com/matzehuels/keygraph/pkg/keychain"
)

// TreeNode is one object of the containment tree.
type TreeNode struct {
	Path     string      `json:"path"`
	Type     string      `json:"type"`
	Name     string      `json:"name"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Tree returns the containment trees of e, one per physical root.
// Reference edges are not part of the tree.
func Tree(e *depgraph.Engine) []*TreeNode {
	var out []*TreeNode
	for r := range e.Roots() {
		out = append(out, treeNode(r))
	}
	return out
}

func treeNode(n *depgraph.Node) *TreeNode {
	k := n.KeyChain().Key()
	t := &TreeNode{
		Path: keychain.Path(n.KeyChain()),
		Type: k.TypeName(),
		Name: Label(k),
	}
	for c := range n.Children() {
		t.Children = append(t.Children, treeNode(c))
	}
	return t
}

// Label is the display name of a key: its identity values joined by
// dots, or the type name for singletons.
func Label(k keychain.Key) string {
	if vals := k.Values(); len(vals) > 0 {
		return strings.Join(vals, ".")
	}
	return k.TypeName()
}

// Walk calls fn for every node of the trees in depth-first order.
func Walk(trees []*TreeNode, fn func(n *TreeNode, depth int)) {
	var walk func(n *TreeNode, depth int)
	walk = func(n *TreeNode, depth int) {
		fn(n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, t := range trees {
		walk(t, 0)
	}
}
