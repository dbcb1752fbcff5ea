// Package dispatcher matches input lines against a command tree and invokes
// the bound handler.
//
// # Matching
//
// The input is tokenized lazily. Starting at the root, each node consumes
// one token that must equal its name. A node with children then tries each
// child in declaration order on its own copy of the token stream: a child
// that does not match lets the next sibling try, and any other outcome,
// success or failure, ends the search. A node that also carries a
// zero-argument overload runs it when the input ends right after its name.
//
// A node without children consumes argument tokens up to its largest
// overload arity and selects the overload whose arity equals the number of
// tokens consumed. Fewer tokens with no matching overload fail with
// ErrNoOverloadForArity; more tokens than the largest arity fail with
// ErrTooManyArguments.
//
// # Decoding and Invocation
//
// Every token is decoded with the decoder registered for its slot type
// before anything runs. The first failure is reported as ErrArgumentParse
// wrapping the decoder's *argtype.ParseError. The handler runs at most once
// per dispatch.
//
// # Usage
//
//	root := tree.Literal("elytra").Then(
//	    tree.Literal("repack").Executes(repack),
//	    tree.Literal("test").Then(
//	        tree.Literal("sneed").Accepts(sneed, tree.Arg("a", argtype.Int)),
//	    ),
//	).MustBuild()
//
//	d, err := dispatcher.New(root, dispatcher.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	if _, err := d.Dispatch("elytra test sneed 5"); err != nil {
//	    var pe *argtype.ParseError
//	    switch {
//	    case errors.Is(err, dispatcher.ErrNameMismatch):
//	        // unknown command
//	    case errors.As(err, &pe):
//	        // bad argument pe.Text
//	    }
//	}
//
// # Hooks
//
// Pre-dispatch hooks can cancel calls after they resolve:
//
//	d.RegisterPreHook(dispatcher.PreDispatchFunc(func(call *dispatcher.Call) bool {
//	    return call.Path[1] != "reset"
//	}))
//
// Post-dispatch hooks observe results:
//
//	d.RegisterPostHook(dispatcher.NewLoggingHook(logger))
//
// # Concurrency
//
// Dispatch holds no shared mutable state besides metrics and the hook
// lists. SetRoot replaces the tree atomically; running dispatches finish on
// the tree they started with.
package dispatcher
