package dispatcher_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/cmdtree/internal/dispatcher"
	"github.com/dshills/cmdtree/internal/logging"
)

func TestPreHookCancels(t *testing.T) {
	r := newRecorder()
	d := newDispatcher(t, r, dispatcher.DefaultConfig())

	var seen []string
	d.RegisterPreHook(dispatcher.PreDispatchFunc(func(call *dispatcher.Call) bool {
		seen = append(seen, call.Command())
		return call.Command() != "elytra reset"
	}))

	if _, err := d.Dispatch("elytra repack"); err != nil {
		t.Fatalf("repack: %v", err)
	}
	_, err := d.Dispatch("elytra reset")
	if !errors.Is(err, dispatcher.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if r.count("reset") != 0 {
		t.Error("cancelled handler ran")
	}
	if len(seen) != 2 {
		t.Errorf("hook saw %v", seen)
	}
}

func TestPreHookNotCalledForUnresolved(t *testing.T) {
	d := newDispatcher(t, newRecorder(), dispatcher.DefaultConfig())

	called := false
	d.RegisterPreHook(dispatcher.PreDispatchFunc(func(*dispatcher.Call) bool {
		called = true
		return true
	}))

	_, _ = d.Dispatch("nothing here")
	if called {
		t.Error("pre hook ran for input that did not resolve")
	}
}

func TestPostHookSeesOutcome(t *testing.T) {
	d := newDispatcher(t, newRecorder(), dispatcher.DefaultConfig())

	var errs []error
	d.RegisterPostHook(dispatcher.PostDispatchFunc(func(call *dispatcher.Call, res dispatcher.Result, err error) {
		errs = append(errs, err)
	}))

	_, _ = d.Dispatch("elytra test sneed 4")
	_, _ = d.Dispatch("elytra test sneed x")

	if len(errs) != 2 {
		t.Fatalf("post hook ran %d times, want 2", len(errs))
	}
	if errs[0] != nil {
		t.Errorf("first outcome = %v", errs[0])
	}
	if !errors.Is(errs[1], dispatcher.ErrArgumentParse) {
		t.Errorf("second outcome = %v", errs[1])
	}
}

func TestFilterHook(t *testing.T) {
	r := newRecorder()
	d := newDispatcher(t, r, dispatcher.DefaultConfig())
	d.RegisterPreHook(&dispatcher.FilterHook{Allow: func(call *dispatcher.Call) bool {
		return call.Arity() == 0
	}})

	if _, err := d.Dispatch("elytra test feed"); err != nil {
		t.Errorf("feed: %v", err)
	}
	if _, err := d.Dispatch("elytra test sneed 1"); !errors.Is(err, dispatcher.ErrCancelled) {
		t.Errorf("sneed: err = %v", err)
	}

	empty := &dispatcher.FilterHook{}
	if !empty.PreDispatch(&dispatcher.Call{}) {
		t.Error("FilterHook without Allow should allow")
	}
}

func TestLoggingHook(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})

	d := newDispatcher(t, newRecorder(), dispatcher.DefaultConfig())
	h := dispatcher.NewLoggingHook(l)
	d.RegisterPreHook(h)
	d.RegisterPostHook(h)

	_, _ = d.Dispatch("elytra repack")
	_, _ = d.Dispatch("elytra test sneed 1 2")
	_, _ = d.Dispatch("elytra test sneed oops")

	out := buf.String()
	for _, want := range []string{
		`command="elytra repack"`,
		"msg=ok",
		"dispatching with 0 args",
		"kind=argument_parse",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
	// Arity errors never resolve, so the hook does not see them.
	if strings.Contains(out, "no overload") {
		t.Errorf("unresolved dispatch reached the hook:\n%s", out)
	}
}
