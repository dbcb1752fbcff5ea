package app

import (
	"fmt"
	"io"

	"github.com/dshills/cmdtree/internal/command/argtype"
	"github.com/dshills/cmdtree/internal/command/tree"
)

// DemoTree returns the built-in elytra tree. Each handler writes a line
// naming the command and its arguments to out.
func DemoTree(out io.Writer) *tree.Node {
	say := func(format string, args ...any) {
		fmt.Fprintf(out, format+"\n", args...)
	}
	return tree.Literal("elytra").Then(
		tree.Literal("repack").Executes(func(tree.Args) error {
			say("elytra repack")
			return nil
		}),
		tree.Literal("reset").Executes(func(tree.Args) error {
			say("elytra reset")
			return nil
		}).Then(
			tree.Literal("meow").Executes(func(tree.Args) error {
				say("elytra reset meow")
				return nil
			}),
		),
		tree.Literal("test").Then(
			tree.Literal("sneed").
				Accepts(func(args tree.Args) error {
					say("elytra test sneed a=%d b=%g c=%d", args.Int(0), args.Float(1), args.Int(2))
					return nil
				}, tree.Arg("a", argtype.Int), tree.Arg("b", argtype.Float), tree.Arg("c", argtype.Int)).
				Accepts(func(args tree.Args) error {
					say("elytra test sneed a=%d", args.Int(0))
					return nil
				}, tree.Arg("a", argtype.Int)),
			tree.Literal("feed").Executes(func(tree.Args) error {
				say("elytra test feed")
				return nil
			}),
		),
	).MustBuild()
}
