package dispatcher_test

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dshills/cmdtree/internal/command/argtype"
	"github.com/dshills/cmdtree/internal/command/tree"
	"github.com/dshills/cmdtree/internal/dispatcher"
)

// recorder counts handler invocations by name and keeps the last args.
type recorder struct {
	mu    sync.Mutex
	calls map[string]int
	last  tree.Args
}

func newRecorder() *recorder {
	return &recorder{calls: make(map[string]int)}
}

func (r *recorder) handler(name string) tree.Handler {
	return func(args tree.Args) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls[name]++
		r.last = args
		return nil
	}
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

func elytra(r *recorder) *tree.Node {
	return tree.Literal("elytra").Then(
		tree.Literal("repack").Executes(r.handler("repack")),
		tree.Literal("reset").Executes(r.handler("reset")).Then(
			tree.Literal("meow").Executes(r.handler("meow")),
		),
		tree.Literal("test").Then(
			tree.Literal("sneed").
				Accepts(r.handler("sneed3"),
					tree.Arg("a", argtype.Int),
					tree.Arg("b", argtype.Float),
					tree.Arg("c", argtype.Int)).
				Accepts(r.handler("sneed1"), tree.Arg("a", argtype.Int)),
			tree.Literal("feed").Executes(r.handler("feed")),
		),
	).MustBuild()
}

func newDispatcher(t *testing.T, r *recorder, cfg dispatcher.Config) *dispatcher.Dispatcher {
	t.Helper()
	d, err := dispatcher.New(elytra(r), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestDispatch_Success(t *testing.T) {
	tests := []struct {
		input   string
		handler string
		path    string
		arity   int
	}{
		{"elytra repack", "repack", "elytra repack", 0},
		{"elytra reset", "reset", "elytra reset", 0},
		{"elytra reset meow", "meow", "elytra reset meow", 0},
		{"elytra test feed", "feed", "elytra test feed", 0},
		{"elytra test sneed 5", "sneed1", "elytra test sneed", 1},
		{"elytra test sneed 1 -2.2 3", "sneed3", "elytra test sneed", 3},
		{`elytra test sneed "1" "-2.2" "1"`, "sneed3", "elytra test sneed", 3},
		{"   elytra    repack   ", "repack", "elytra repack", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := newRecorder()
			d := newDispatcher(t, r, dispatcher.DefaultConfig())

			res, err := d.Dispatch(tt.input)
			if err != nil {
				t.Fatalf("Dispatch(%q): %v", tt.input, err)
			}
			if r.count(tt.handler) != 1 || r.total() != 1 {
				t.Errorf("calls = %v, want exactly one %s", r.calls, tt.handler)
			}
			if got := strings.Join(res.Path, " "); got != tt.path {
				t.Errorf("Path = %q, want %q", got, tt.path)
			}
			if res.Arity != tt.arity {
				t.Errorf("Arity = %d, want %d", res.Arity, tt.arity)
			}
		})
	}
}

func TestDispatch_DecodedArgs(t *testing.T) {
	r := newRecorder()
	d := newDispatcher(t, r, dispatcher.DefaultConfig())

	if _, err := d.Dispatch(`elytra test sneed 7 "-2.5" 9`); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if r.last.Int(0) != 7 || r.last.Float(1) != -2.5 || r.last.Int(2) != 9 {
		t.Errorf("args = %v", r.last.Values())
	}
}

func TestDispatch_ArgumentParse(t *testing.T) {
	r := newRecorder()
	d := newDispatcher(t, r, dispatcher.DefaultConfig())

	_, err := d.Dispatch(`elytra test sneed 1.2 "-2.2" "1"`)
	if !errors.Is(err, dispatcher.ErrArgumentParse) {
		t.Fatalf("err = %v, want ErrArgumentParse", err)
	}

	var pe *argtype.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err %v does not wrap *argtype.ParseError", err)
	}
	if pe.Text != "1.2" || pe.Type != "integer" {
		t.Errorf("ParseError = {%q, %q}, want {\"1.2\", \"integer\"}", pe.Text, pe.Type)
	}
	if !strings.Contains(err.Error(), `failed to parse "1.2" as an integer`) {
		t.Errorf("message = %q", err.Error())
	}

	var de *dispatcher.Error
	if !errors.As(err, &de) || de.Index != 0 {
		t.Errorf("Index = %v, want 0", de)
	}
	if r.total() != 0 {
		t.Errorf("handler ran despite parse failure: %v", r.calls)
	}
}

func TestDispatch_LaterArgumentParse(t *testing.T) {
	r := newRecorder()
	d := newDispatcher(t, r, dispatcher.DefaultConfig())

	_, err := d.Dispatch("elytra test sneed 1 2.0 x")
	var de *dispatcher.Error
	if !errors.As(err, &de) || de.Kind != dispatcher.ErrArgumentParse {
		t.Fatalf("err = %v, want ErrArgumentParse", err)
	}
	if de.Index != 2 {
		t.Errorf("Index = %d, want 2", de.Index)
	}
	if r.total() != 0 {
		t.Errorf("handler ran: %v", r.calls)
	}
}

func TestDispatch_ArityErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  error
		arity int
		msg   string
	}{
		{"no overload for 2", "elytra test sneed 1 2", dispatcher.ErrNoOverloadForArity, 2, "no overload with 2 args"},
		{"no overload for 0", "elytra test sneed", dispatcher.ErrNoOverloadForArity, 0, "no overload with 0 args"},
		{"too many", "elytra test sneed 1 2 3 4", dispatcher.ErrTooManyArguments, 4, "too many arguments given to command"},
		{"args to nullary", "elytra repack now", dispatcher.ErrTooManyArguments, 1, "too many arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecorder()
			d := newDispatcher(t, r, dispatcher.DefaultConfig())

			_, err := d.Dispatch(tt.input)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want %v", err, tt.kind)
			}
			var de *dispatcher.Error
			if !errors.As(err, &de) {
				t.Fatalf("err is not *dispatcher.Error: %T", err)
			}
			if de.Arity != tt.arity {
				t.Errorf("Arity = %d, want %d", de.Arity, tt.arity)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("message %q missing %q", err.Error(), tt.msg)
			}
			if r.total() != 0 {
				t.Errorf("handler ran: %v", r.calls)
			}
		})
	}
}

func TestDispatch_NameMismatch(t *testing.T) {
	tests := []struct {
		input string
		path  string
	}{
		{"", ""},
		{"kelp", ""},
		{"Elytra repack", ""},
		{"elytra", "elytra"},
		{"elytra bogus", "elytra"},
		{"elytra test bogus", "elytra test"},
		{"elytra test", "elytra test"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := newRecorder()
			d := newDispatcher(t, r, dispatcher.DefaultConfig())

			_, err := d.Dispatch(tt.input)
			if !errors.Is(err, dispatcher.ErrNameMismatch) {
				t.Fatalf("err = %v, want ErrNameMismatch", err)
			}
			var de *dispatcher.Error
			errors.As(err, &de)
			if got := de.Command(); got != tt.path {
				t.Errorf("Path = %q, want %q", got, tt.path)
			}
			if r.total() != 0 {
				t.Errorf("handler ran: %v", r.calls)
			}
		})
	}
}

func TestDispatch_UnbalancedQuote(t *testing.T) {
	tests := []string{
		`"elytra repack`,
		`elytra "repack`,
		`elytra test sneed "1`,
		`elytra test sneed 1 2 "3`,
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			r := newRecorder()
			d := newDispatcher(t, r, dispatcher.DefaultConfig())

			_, err := d.Dispatch(input)
			if !errors.Is(err, dispatcher.ErrUnbalancedQuote) {
				t.Fatalf("err = %v, want ErrUnbalancedQuote", err)
			}
			if err.Error() != "unbalanced quotes" {
				t.Errorf("message = %q", err.Error())
			}
			if r.total() != 0 {
				t.Errorf("handler ran: %v", r.calls)
			}
		})
	}
}

func TestDispatch_ErrorShortCircuitsSiblings(t *testing.T) {
	r := newRecorder()
	root := tree.Literal("root").Then(
		tree.Literal("a").Accepts(r.handler("first"), tree.Arg("n", argtype.Int)),
		tree.Literal("a").Accepts(r.handler("second"), tree.Arg("s", argtype.String)),
	).MustBuild()

	d, err := dispatcher.New(root, dispatcher.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// The first "a" matches by name, so its arity error wins.
	_, err = d.Dispatch("root a 1 2")
	if !errors.Is(err, dispatcher.ErrTooManyArguments) {
		t.Fatalf("err = %v, want ErrTooManyArguments", err)
	}

	// Argument decoding happens after matching; the second sibling is not tried.
	_, err = d.Dispatch("root a word")
	if !errors.Is(err, dispatcher.ErrArgumentParse) {
		t.Fatalf("err = %v, want ErrArgumentParse", err)
	}
	if r.total() != 0 {
		t.Errorf("handlers ran: %v", r.calls)
	}

	if _, err := d.Dispatch("root a 3"); err != nil || r.count("first") != 1 {
		t.Errorf("err = %v, calls = %v", err, r.calls)
	}
}

func TestDispatch_BacktracksAcrossBranches(t *testing.T) {
	r := newRecorder()
	root := tree.Literal("root").Then(
		tree.Literal("x").Then(tree.Literal("y").Executes(r.handler("xy"))),
		tree.Literal("x").Then(tree.Literal("z").Executes(r.handler("xz"))),
	).MustBuild()

	d, err := dispatcher.New(root, dispatcher.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := d.Dispatch("root x z"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if r.count("xz") != 1 || r.total() != 1 {
		t.Errorf("calls = %v", r.calls)
	}
}

func TestDispatch_HandlerError(t *testing.T) {
	boom := errors.New("boom")
	root := tree.Literal("fail").Executes(func(tree.Args) error { return boom }).MustBuild()

	d, err := dispatcher.New(root, dispatcher.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = d.Dispatch("fail")
	if !errors.Is(err, dispatcher.ErrHandler) {
		t.Errorf("err = %v, want ErrHandler", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v does not wrap handler error", err)
	}
}

func TestDispatch_PanicRecovery(t *testing.T) {
	root := tree.Literal("crash").Executes(func(tree.Args) error { panic("kaboom") }).MustBuild()

	d, err := dispatcher.New(root, dispatcher.DefaultConfig().WithMetrics())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = d.Dispatch("crash")
	if !errors.Is(err, dispatcher.ErrHandlerPanic) {
		t.Fatalf("err = %v, want ErrHandlerPanic", err)
	}
	if !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("message = %q", err.Error())
	}
	if d.Metrics().TotalPanics() != 1 {
		t.Errorf("TotalPanics = %d", d.Metrics().TotalPanics())
	}
}

func TestDispatch_PanicWithoutRecovery(t *testing.T) {
	root := tree.Literal("crash").Executes(func(tree.Args) error { panic("kaboom") }).MustBuild()

	d, err := dispatcher.New(root, dispatcher.DefaultConfig().WithPanicRecovery(false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic to propagate")
		}
	}()
	_, _ = d.Dispatch("crash")
}

func TestResolve(t *testing.T) {
	r := newRecorder()
	d := newDispatcher(t, r, dispatcher.DefaultConfig())

	call, err := d.Resolve(`elytra test sneed 1.2 "-2.2" 1`)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if call.Command() != "elytra test sneed" {
		t.Errorf("Command = %q", call.Command())
	}
	if call.Arity() != 3 || call.Overload.Arity() != 3 {
		t.Errorf("Arity = %d", call.Arity())
	}
	want := []string{"1.2", "-2.2", "1"}
	for i, tok := range want {
		if call.Tokens[i] != tok {
			t.Errorf("Tokens[%d] = %q, want %q", i, call.Tokens[i], tok)
		}
	}
	if r.total() != 0 {
		t.Error("Resolve invoked a handler")
	}

	if _, err := d.Decode(call); !errors.Is(err, dispatcher.ErrArgumentParse) {
		t.Errorf("Decode err = %v", err)
	}
}

func TestNew_InvalidTree(t *testing.T) {
	if _, err := dispatcher.New(nil, dispatcher.DefaultConfig()); !errors.Is(err, tree.ErrInvalidTree) {
		t.Errorf("nil root: err = %v", err)
	}

	root := tree.Literal("x").Accepts(func(tree.Args) error { return nil }, tree.Arg("v", "uuid")).MustBuild()
	if _, err := dispatcher.New(root, dispatcher.DefaultConfig()); !errors.Is(err, tree.ErrInvalidTree) {
		t.Errorf("unregistered type: err = %v", err)
	}

	reg := argtype.Default()
	reg.Register("uuid", argtype.StringDecoder{})
	if _, err := dispatcher.New(root, dispatcher.DefaultConfig(), dispatcher.WithRegistry(reg)); err != nil {
		t.Errorf("custom registry: %v", err)
	}
}

func TestSuggestions(t *testing.T) {
	r := newRecorder()
	d := newDispatcher(t, r, dispatcher.DefaultConfig())

	_, err := d.Dispatch("elytra repak")
	var de *dispatcher.Error
	if !errors.As(err, &de) || de.Kind != dispatcher.ErrNameMismatch {
		t.Fatalf("err = %v", err)
	}
	if len(de.Suggestions) == 0 || de.Suggestions[0] != "elytra repack" {
		t.Errorf("Suggestions = %v", de.Suggestions)
	}
	if len(de.Suggestions) > 3 {
		t.Errorf("got %d suggestions, limit is 3", len(de.Suggestions))
	}

	d2 := newDispatcher(t, r, dispatcher.DefaultConfig().WithMaxSuggestions(0))
	_, err = d2.Dispatch("elytra repak")
	errors.As(err, &de)
	if len(de.Suggestions) != 0 {
		t.Errorf("suggestions disabled but got %v", de.Suggestions)
	}
}

func TestUsage(t *testing.T) {
	d := newDispatcher(t, newRecorder(), dispatcher.DefaultConfig())

	want := []string{
		"elytra repack",
		"elytra reset",
		"elytra reset meow",
		"elytra test sneed <a> <b> <c>",
		"elytra test sneed <a>",
		"elytra test feed",
	}
	got := d.Usage()
	if len(got) != len(want) {
		t.Fatalf("Usage = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Usage[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	got[0] = "mutated"
	if d.Usage()[0] != "elytra repack" {
		t.Error("Usage returned shared slice")
	}
}

func TestSetRoot(t *testing.T) {
	r := newRecorder()
	d := newDispatcher(t, r, dispatcher.DefaultConfig())

	next := tree.Literal("kelp").Executes(r.handler("kelp")).MustBuild()
	if err := d.SetRoot(next); err != nil {
		t.Fatalf("SetRoot: %v", err)
	}
	if _, err := d.Dispatch("kelp"); err != nil {
		t.Errorf("Dispatch after SetRoot: %v", err)
	}
	if _, err := d.Dispatch("elytra repack"); !errors.Is(err, dispatcher.ErrNameMismatch) {
		t.Errorf("old tree still active: %v", err)
	}
	if d.Root() != next {
		t.Error("Root did not return the new tree")
	}

	if err := d.SetRoot(nil); err == nil {
		t.Error("SetRoot(nil) should fail")
	}
	if d.Root() != next {
		t.Error("failed SetRoot replaced the tree")
	}
}

func TestReplace(t *testing.T) {
	r := newRecorder()
	d := newDispatcher(t, r, dispatcher.DefaultConfig())

	var got string
	reg := argtype.Default()
	reg.Register("color", argtype.Enum("color", "red", "green"))
	next := tree.Literal("paint").Accepts(func(args tree.Args) error {
		got = args.String(0)
		return nil
	}, tree.Arg("c", "color")).MustBuild(tree.WithRegistry(reg))

	if err := d.SetRoot(next); err == nil {
		t.Fatal("SetRoot accepted a tree with an unknown type")
	}
	if err := d.Replace(next, reg); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if d.Registry() != reg {
		t.Error("Registry did not return the new registry")
	}
	if _, err := d.Dispatch("paint green"); err != nil || got != "green" {
		t.Errorf("Dispatch = %v, got %q", err, got)
	}
	if _, err := d.Dispatch("paint blue"); !errors.Is(err, dispatcher.ErrArgumentParse) {
		t.Errorf("err = %v, want ErrArgumentParse", err)
	}

	if err := d.Replace(elytra(r), nil); err != nil {
		t.Fatalf("Replace with default registry: %v", err)
	}
	if _, err := d.Dispatch("elytra repack"); err != nil {
		t.Errorf("Dispatch after Replace: %v", err)
	}
}

func TestDispatch_Concurrent(t *testing.T) {
	var count atomic.Int64
	root := tree.Literal("inc").
		Accepts(func(a tree.Args) error {
			count.Add(int64(a.Int(0)))
			return nil
		}, tree.Arg("n", argtype.Int)).
		MustBuild()

	d, err := dispatcher.New(root, dispatcher.DefaultConfig().WithMetrics())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Dispatch("inc 2")
		}()
	}
	wg.Wait()

	if count.Load() != 100 {
		t.Errorf("count = %d, want 100", count.Load())
	}
	if d.Metrics().TotalDispatches() != 50 {
		t.Errorf("TotalDispatches = %d", d.Metrics().TotalDispatches())
	}
}

func TestResultID(t *testing.T) {
	d := newDispatcher(t, newRecorder(), dispatcher.DefaultConfig())

	a, _ := d.Dispatch("elytra repack")
	b, _ := d.Dispatch("nope")
	if a.ID == b.ID {
		t.Error("dispatch IDs should differ")
	}
	if b.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("failed dispatch should still carry an ID")
	}
}

func TestKindName(t *testing.T) {
	if dispatcher.KindName(nil) != "" {
		t.Error("KindName(nil) should be empty")
	}
	if dispatcher.KindName(errors.New("x")) != "other" {
		t.Error("foreign errors should be other")
	}
	err := &dispatcher.Error{Kind: dispatcher.ErrTooManyArguments}
	if dispatcher.KindName(err) != "too_many_arguments" {
		t.Errorf("KindName = %q", dispatcher.KindName(err))
	}
}
