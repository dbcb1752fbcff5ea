// Package usage renders the command paths of a tree as usage strings.
package usage

import (
	"strings"

	"github.com/dshills/cmdtree/internal/command/tree"
)

// Generate returns one string per (node, overload) pair reachable from root,
// in declaration order: the space-separated names from the root followed by
// each argument slot as <name>.
//
// A node that has both a zero-argument overload and children yields its own
// bare string before the strings of its children.
func Generate(root *tree.Node) []string {
	return render(root, nil, plain)
}

// Detailed is like Generate but renders slots as <name:type>.
func Detailed(root *tree.Node) []string {
	return render(root, nil, typed)
}

// For returns the usage strings of the subtree reached by following path
// from root's children. The strings keep the full prefix from root.
// It returns nil if path does not exist.
func For(root *tree.Node, path ...string) []string {
	if root == nil {
		return nil
	}
	prefix := []string{}
	n := root
	for _, name := range path {
		prefix = append(prefix, n.Name())
		if n = n.Child(name); n == nil {
			return nil
		}
	}
	return render(n, prefix, plain)
}

type slotFormat func(tree.Slot) string

func plain(s tree.Slot) string { return "<" + s.Name + ">" }

func typed(s tree.Slot) string { return "<" + s.Name + ":" + string(s.Type) + ">" }

func render(root *tree.Node, prefix []string, format slotFormat) []string {
	if root == nil {
		return nil
	}
	var out []string
	var visit func(n *tree.Node, path []string)
	visit = func(n *tree.Node, path []string) {
		path = append(path[:len(path):len(path)], n.Name())
		for _, ov := range n.Overloads() {
			parts := make([]string, 0, len(path)+ov.Arity())
			parts = append(parts, path...)
			for _, s := range ov.Slots() {
				parts = append(parts, format(s))
			}
			out = append(out, strings.Join(parts, " "))
		}
		for _, c := range n.Children() {
			visit(c, path)
		}
	}
	visit(root, prefix)
	return out
}
