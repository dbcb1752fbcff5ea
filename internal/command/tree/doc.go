// Package tree defines the command tree consumed by the dispatcher.
//
// A tree is made of literal nodes. Each node has a name that must equal an
// input token exactly, zero or more overloads, and zero or more children.
// An overload is an ordered list of typed argument slots bound to a handler;
// its arity is the number of slots, and the arities of one node's overloads
// are pairwise distinct so the argument count alone selects an overload.
//
// A node is valid when exactly one of these holds:
//   - it has a single zero-argument overload and children,
//   - it has no overloads and at least one child,
//   - it has one or more overloads and no children.
//
// Trees are assembled with the builder and validated once, before any
// dispatch:
//
//	root, err := tree.Literal("elytra").Then(
//	    tree.Literal("repack").Executes(repack),
//	    tree.Literal("test").Then(
//	        tree.Literal("sneed").
//	            Accepts(sneed3, tree.Arg("a", argtype.Int), tree.Arg("b", argtype.Float), tree.Arg("c", argtype.Int)).
//	            Accepts(sneed1, tree.Arg("a", argtype.Int)),
//	    ),
//	).Build()
//
// Built trees are immutable and safe to share between goroutines.
package tree
