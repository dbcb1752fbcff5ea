package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/cmdtree/internal/command/argtype"
)

// ErrInvalidTree is wrapped by every validation failure.
var ErrInvalidTree = errors.New("tree: invalid command tree")

// ConfigError describes a node that breaks a tree invariant.
type ConfigError struct {
	Path   []string // names from the root to the offending node
	Reason string
}

func (e *ConfigError) Error() string {
	path := strings.Join(e.Path, " ")
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("tree: node %q: %s", path, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidTree
}

type validateOptions struct {
	registry *argtype.Registry
}

// ValidateOption configures Validate.
type ValidateOption func(*validateOptions)

// WithRegistry makes validation reject slot types missing from reg.
func WithRegistry(reg *argtype.Registry) ValidateOption {
	return func(o *validateOptions) {
		o.registry = reg
	}
}

// Validate checks every node of the tree rooted at root.
// It returns the first *ConfigError found in depth-first order.
func Validate(root *Node, opts ...ValidateOption) error {
	var o validateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if root == nil {
		return &ConfigError{Reason: "root is nil"}
	}
	return validateNode(root, nil, &o)
}

func validateNode(n *Node, parent []string, o *validateOptions) error {
	path := append(parent[:len(parent):len(parent)], n.name)
	fail := func(format string, args ...any) error {
		return &ConfigError{Path: path, Reason: fmt.Sprintf(format, args...)}
	}

	if n.name == "" {
		return fail("empty name")
	}

	overloads, children := len(n.overloads), len(n.children)
	switch {
	case overloads == 0 && children == 0:
		return fail("no overloads and no children")
	case overloads > 0 && children > 0:
		if overloads != 1 || n.overloads[0].Arity() != 0 {
			return fail("only a single zero-argument overload may coexist with children")
		}
	}

	seen := make(map[int]bool, overloads)
	for _, ov := range n.overloads {
		if ov.handler == nil {
			return fail("overload with %d arguments has no handler", ov.Arity())
		}
		if seen[ov.Arity()] {
			return fail("more than one overload with %d arguments", ov.Arity())
		}
		seen[ov.Arity()] = true

		for i, s := range ov.slots {
			if s.Name == "" {
				return fail("argument %d has no name", i)
			}
			if s.Type == "" {
				return fail("argument <%s> has no type", s.Name)
			}
			if o.registry != nil && !o.registry.Has(s.Type) {
				return fail("argument <%s> has unknown type %q", s.Name, s.Type)
			}
		}
	}

	for i, c := range n.children {
		if c == nil {
			return fail("child %d is nil", i)
		}
		if err := validateNode(c, path, o); err != nil {
			return err
		}
	}
	return nil
}
