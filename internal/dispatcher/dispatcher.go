package dispatcher

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/cmdtree/internal/command/argtype"
	"github.com/dshills/cmdtree/internal/command/tree"
	"github.com/dshills/cmdtree/internal/command/usage"
	"github.com/dshills/cmdtree/internal/logging"
	"github.com/dshills/cmdtree/internal/suggest"
)

// Result describes a dispatch. It is returned alongside errors too, with
// ID and Duration always set.
type Result struct {
	// ID identifies the dispatch in logs and hooks.
	ID uuid.UUID

	// Path is the matched command path, empty when matching failed.
	Path []string

	// Arity is the number of arguments passed to the handler.
	Arity int

	// Duration covers matching, decoding and the handler.
	Duration time.Duration
}

// state is the tree, the registry it was validated against and everything
// derived from them. It is replaced as a whole by SetRoot and Replace.
type state struct {
	root      *tree.Node
	registry  *argtype.Registry
	usage     []string
	suggester *suggest.Suggester
}

// Dispatcher matches input lines against a command tree and invokes the
// selected handler. It is safe for concurrent use.
type Dispatcher struct {
	mu sync.RWMutex

	state   atomic.Pointer[state]
	logger  *logging.Logger
	config  Config
	metrics *Metrics

	// registry passed to New; later trees carry their own
	registry *argtype.Registry

	preHooks  []PreDispatchHook
	postHooks []PostDispatchHook
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRegistry sets the decoder registry. Defaults to argtype.Default().
func WithRegistry(reg *argtype.Registry) Option {
	return func(d *Dispatcher) {
		if reg != nil {
			d.registry = reg
		}
	}
}

// WithLogger sets the logger. Defaults to logging.Null.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a dispatcher for root. The tree is validated against the
// registry; an invalid tree is an error.
func New(root *tree.Node, config Config, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		registry: argtype.Default(),
		logger:   logging.Null,
		config:   config,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithComponent("dispatcher")

	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}

	if err := d.Replace(root, d.registry); err != nil {
		return nil, err
	}
	return d, nil
}

// SetRoot validates root against the current registry and swaps it in.
// Dispatches already running keep the tree they started with.
func (d *Dispatcher) SetRoot(root *tree.Node) error {
	return d.Replace(root, d.Registry())
}

// Replace swaps in a new tree together with the registry its arguments
// decode with. A nil reg means argtype.Default(). Nothing changes if root
// is invalid for reg.
func (d *Dispatcher) Replace(root *tree.Node, reg *argtype.Registry) error {
	if reg == nil {
		reg = argtype.Default()
	}
	if err := tree.Validate(root, tree.WithRegistry(reg)); err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}

	lines := usage.Generate(root)
	d.state.Store(&state{
		root:      root,
		registry:  reg,
		usage:     lines,
		suggester: suggest.New(lines, suggest.DefaultOptions()),
	})
	d.logger.Debug("command tree loaded with %d usage entries", len(lines))
	return nil
}

// Root returns the current tree.
func (d *Dispatcher) Root() *tree.Node {
	return d.state.Load().root
}

// Usage returns the usage strings of the current tree.
func (d *Dispatcher) Usage() []string {
	lines := d.state.Load().usage
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

// Registry returns the decoder registry of the current tree.
func (d *Dispatcher) Registry() *argtype.Registry {
	return d.state.Load().registry
}

// Metrics returns the metrics collector (nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}

// Resolve matches input and selects an overload without decoding
// arguments or invoking anything.
func (d *Dispatcher) Resolve(input string) (*Call, error) {
	call, err := d.resolve(d.state.Load(), input)
	if err != nil {
		return nil, err
	}
	return call, nil
}

func (d *Dispatcher) resolve(st *state, input string) (*Call, error) {
	call, err := resolve(st.root, input)
	if err != nil {
		return nil, d.withSuggestions(st, input, err)
	}
	return call, nil
}

// Dispatch matches input, decodes the arguments and invokes the handler.
// The handler runs at most once and only when every argument decoded.
func (d *Dispatcher) Dispatch(input string) (Result, error) {
	start := time.Now()
	res := Result{ID: uuid.New()}
	log := d.logger.WithField("dispatch_id", res.ID.String())
	st := d.state.Load()

	call, err := d.resolve(st, input)
	if err != nil {
		res.Duration = time.Since(start)
		d.record(nil, res, err)
		log.WithError(err).Debug("resolve failed for %q", input)
		return res, err
	}

	res.Path = call.Path
	res.Arity = call.Arity()
	log = log.WithField("command", call.Command())

	if !d.runPreHooks(call) {
		err = &Error{Kind: ErrCancelled, Path: call.Path, Arity: call.Arity()}
		res.Duration = time.Since(start)
		d.record(call, res, err)
		log.Debug("cancelled by hook")
		return res, err
	}

	err = d.execute(st, call, log)
	res.Duration = time.Since(start)

	d.runPostHooks(call, res, err)
	d.record(call, res, err)

	if err != nil {
		log.WithError(err).Debug("dispatch failed")
	} else {
		log.Debug("dispatched in %s", res.Duration)
	}
	return res, err
}

// Decode converts the call's tokens into handler arguments using the
// current registry.
func (d *Dispatcher) Decode(call *Call) (tree.Args, error) {
	return decode(d.state.Load().registry, call)
}

func decode(reg *argtype.Registry, call *Call) (tree.Args, error) {
	values := make([]any, len(call.Tokens))
	for i, tok := range call.Tokens {
		slot := call.Overload.Slot(i)
		v, err := reg.Decode(slot.Type, tok)
		if err != nil {
			return tree.Args{}, &Error{
				Kind:  ErrArgumentParse,
				Path:  call.Path,
				Arity: call.Arity(),
				Max:   call.Arity(),
				Index: i,
				Cause: err,
			}
		}
		values[i] = v
	}
	return tree.NewArgs(values...), nil
}

func (d *Dispatcher) execute(st *state, call *Call, log *logging.Logger) error {
	args, err := decode(st.registry, call)
	if err != nil {
		return err
	}

	if d.config.RecoverFromPanic {
		err = d.invokeWithRecovery(call, args, log)
	} else {
		err = call.Overload.Invoke(args)
	}
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) && de.Kind == ErrHandlerPanic {
		return err
	}
	return &Error{Kind: ErrHandler, Path: call.Path, Arity: call.Arity(), Cause: err}
}

// invokeWithRecovery invokes the handler, converting a panic into an
// ErrHandlerPanic error.
func (d *Dispatcher) invokeWithRecovery(call *Call, args tree.Args, log *logging.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			log.Error("handler panic: %v\n%s", r, string(stack[:n]))

			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = &Error{Kind: ErrHandlerPanic, Path: call.Path, Arity: call.Arity(), Cause: cause}

			if d.metrics != nil {
				d.metrics.RecordPanic(call.Command())
			}
		}
	}()

	return call.Overload.Invoke(args)
}

// withSuggestions attaches ranked usage strings to mismatch errors.
func (d *Dispatcher) withSuggestions(st *state, input string, err error) error {
	mm, ok := isMismatch(err)
	if !ok || d.config.MaxSuggestions <= 0 {
		return err
	}
	found := st.suggester.Suggest(input, d.config.MaxSuggestions)
	if len(found) == 0 {
		return err
	}
	out := *mm
	out.Suggestions = make([]string, len(found))
	for i, s := range found {
		out.Suggestions[i] = s.Text
	}
	return &out
}

func (d *Dispatcher) record(call *Call, res Result, err error) {
	if d.metrics == nil {
		return
	}
	command := ""
	if call != nil {
		command = call.Command()
	}
	d.metrics.RecordDispatch(command, res.Duration, err)
}

// RegisterPreHook registers a pre-dispatch hook.
func (d *Dispatcher) RegisterPreHook(hook PreDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preHooks = append(d.preHooks, hook)
}

// RegisterPostHook registers a post-dispatch hook.
func (d *Dispatcher) RegisterPostHook(hook PostDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postHooks = append(d.postHooks, hook)
}

// runPreHooks runs all pre-dispatch hooks.
// Returns false if any hook cancels the call.
func (d *Dispatcher) runPreHooks(call *Call) bool {
	d.mu.RLock()
	hooks := make([]PreDispatchHook, len(d.preHooks))
	copy(hooks, d.preHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		if !h.PreDispatch(call) {
			return false
		}
	}
	return true
}

// runPostHooks runs all post-dispatch hooks.
func (d *Dispatcher) runPostHooks(call *Call, res Result, err error) {
	d.mu.RLock()
	hooks := make([]PostDispatchHook, len(d.postHooks))
	copy(hooks, d.postHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		h.PostDispatch(call, res, err)
	}
}
