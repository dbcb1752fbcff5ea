package tree

import (
	"fmt"

	"github.com/dshills/cmdtree/internal/command/argtype"
)

// Handler runs a command with its decoded arguments.
// args.Len() always equals the arity of the overload it is bound to.
type Handler func(args Args) error

// Slot is a named, typed argument position.
type Slot struct {
	// Name is shown in usage strings as <Name>.
	Name string

	// Type selects the decoder for the argument.
	Type argtype.Type
}

// Arg creates an argument slot.
func Arg(name string, typ argtype.Type) Slot {
	return Slot{Name: name, Type: typ}
}

// Overload is one argument signature of a node.
type Overload struct {
	slots   []Slot
	handler Handler
}

// Arity returns the number of argument slots.
func (o *Overload) Arity() int {
	return len(o.slots)
}

// Slots returns a copy of the argument slots in declaration order.
func (o *Overload) Slots() []Slot {
	out := make([]Slot, len(o.slots))
	copy(out, o.slots)
	return out
}

// Slot returns the i-th slot.
func (o *Overload) Slot(i int) Slot {
	return o.slots[i]
}

// Handler returns the bound handler.
func (o *Overload) Handler() Handler {
	return o.handler
}

// Invoke calls the handler. It returns an error without calling it when the
// number of values does not match the arity.
func (o *Overload) Invoke(args Args) error {
	if args.Len() != o.Arity() {
		return fmt.Errorf("overload takes %d arguments, got %d", o.Arity(), args.Len())
	}
	return o.handler(args)
}

// Node is a literal command in the tree.
type Node struct {
	name      string
	overloads []*Overload
	children  []*Node
}

// Name returns the literal the node matches.
func (n *Node) Name() string {
	return n.name
}

// Overloads returns the overloads in declaration order.
func (n *Node) Overloads() []*Overload {
	out := make([]*Overload, len(n.overloads))
	copy(out, n.overloads)
	return out
}

// Children returns the children in declaration order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// NumOverloads returns the number of overloads.
func (n *Node) NumOverloads() int {
	return len(n.overloads)
}

// HasChildren reports whether the node branches.
func (n *Node) HasChildren() bool {
	return len(n.children) > 0
}

// Overload returns the overload with the given arity, or nil.
func (n *Node) Overload(arity int) *Overload {
	for _, o := range n.overloads {
		if o.Arity() == arity {
			return o
		}
	}
	return nil
}

// MaxArity returns the largest overload arity, or -1 without overloads.
func (n *Node) MaxArity() int {
	highest := -1
	for _, o := range n.overloads {
		if o.Arity() > highest {
			highest = o.Arity()
		}
	}
	return highest
}

// Child returns the first child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Find follows names from n's children downward and returns the node at the
// end of the path, or nil. An empty path returns n.
func (n *Node) Find(path ...string) *Node {
	cur := n
	for _, name := range path {
		if cur = cur.Child(name); cur == nil {
			return nil
		}
	}
	return cur
}

// WalkFunc is called for each node with the names from the root to the
// node, inclusive. The path slice is reused between calls.
type WalkFunc func(path []string, n *Node) error

// Walk visits n and its descendants depth-first in declaration order.
// It stops at the first error returned by fn.
func (n *Node) Walk(fn WalkFunc) error {
	return n.walk(make([]string, 0, 8), fn)
}

func (n *Node) walk(path []string, fn WalkFunc) error {
	path = append(path, n.name)
	if err := fn(path, n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.walk(path, fn); err != nil {
			return err
		}
	}
	return nil
}
