// Package app wires configuration, logging, the command tree and the
// dispatcher together, and reloads script trees when they change on disk.
package app

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/cmdtree/internal/command/argtype"
	"github.com/dshills/cmdtree/internal/command/tree"
	"github.com/dshills/cmdtree/internal/command/usage"
	"github.com/dshills/cmdtree/internal/config"
	"github.com/dshills/cmdtree/internal/config/loader"
	"github.com/dshills/cmdtree/internal/dispatcher"
	"github.com/dshills/cmdtree/internal/logging"
	"github.com/dshills/cmdtree/internal/script"
	"github.com/dshills/cmdtree/internal/watcher"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to a TOML or YAML configuration file.
	ConfigPath string

	// ScriptPath overrides script.path from the configuration.
	ScriptPath string

	// Watch overrides script.watch when true.
	Watch bool

	// Overrides are dotted config paths applied above every other layer.
	Overrides map[string]any

	// FS reads the configuration file. Defaults to the OS file system.
	FS loader.FileSystem

	// Env supplies the environment layer. Defaults to CMDTREE_ variables.
	Env loader.Loader

	// SkipEnv disables the environment layer.
	SkipEnv bool

	// Stdout receives handler output. Defaults to os.Stdout.
	Stdout io.Writer

	// LogOutput receives log entries. Defaults to os.Stderr.
	LogOutput io.Writer

	// Tree replaces the script and demo trees when set.
	Tree *tree.Node

	// Registry is the base decoder registry. Defaults to argtype.Default().
	Registry *argtype.Registry
}

// Application owns the dispatcher and the source of its tree.
type Application struct {
	mu sync.Mutex

	opts       Options
	config     *config.Config
	logger     *logging.Logger
	dispatcher *dispatcher.Dispatcher

	// script is nil for the demo tree and for Options.Tree.
	script  *script.Script
	watcher *watcher.FileWatcher
	reloads atomic.Int64

	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// New loads the configuration, builds the tree and starts the script
// watcher when enabled. Components already started are released on failure.
func New(opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Registry == nil {
		opts.Registry = argtype.Default()
	}

	app := &Application{
		opts: opts,
		done: make(chan struct{}),
	}
	if err := app.bootstrap(); err != nil {
		app.cleanup()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	if err := app.initConfig(); err != nil {
		return err
	}
	app.initLogger()
	if err := app.initDispatcher(); err != nil {
		return err
	}
	return app.initWatcher()
}

func (app *Application) initConfig() error {
	overrides := make(map[string]any, len(app.opts.Overrides)+2)
	for k, v := range app.opts.Overrides {
		overrides[k] = v
	}
	if app.opts.ScriptPath != "" {
		overrides["script.path"] = app.opts.ScriptPath
	}
	if app.opts.Watch {
		overrides["script.watch"] = true
	}

	cfg, err := config.Load(config.Options{
		Path:      app.opts.ConfigPath,
		FS:        app.opts.FS,
		Env:       app.opts.Env,
		SkipEnv:   app.opts.SkipEnv,
		Overrides: overrides,
	})
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.config = cfg
	return nil
}

func (app *Application) initLogger() {
	app.logger = logging.New(logging.Config{
		Level:  app.config.LogLevel(),
		Output: app.opts.LogOutput,
		JSON:   app.config.Logging.Format == "json",
	})
	for _, key := range app.config.Unused() {
		app.logger.Warn("unknown configuration key %q", key)
	}
}

func (app *Application) initDispatcher() error {
	root, reg, err := app.loadTree()
	if err != nil {
		return &InitError{Component: "tree", Err: err}
	}

	dc := app.config.Dispatch
	d, err := dispatcher.New(root, dispatcher.Config{
		RecoverFromPanic: dc.RecoverPanics,
		EnableMetrics:    dc.Metrics,
		MaxSuggestions:   dc.MaxSuggestions,
	}, dispatcher.WithRegistry(reg), dispatcher.WithLogger(app.logger))
	if err != nil {
		return &InitError{Component: "dispatcher", Err: err}
	}

	hook := dispatcher.NewLoggingHook(app.logger)
	d.RegisterPreHook(hook)
	d.RegisterPostHook(hook)

	app.dispatcher = d
	return nil
}

// loadTree picks the tree source: Options.Tree, then the script, then the
// demo tree.
func (app *Application) loadTree() (*tree.Node, *argtype.Registry, error) {
	switch {
	case app.opts.Tree != nil:
		return app.opts.Tree, app.opts.Registry, nil
	case app.config.Script.Path != "":
		s, err := app.loadScript()
		if err != nil {
			return nil, nil, err
		}
		app.script = s
		return s.Root(), s.Registry(), nil
	default:
		return DemoTree(app.opts.Stdout), app.opts.Registry, nil
	}
}

func (app *Application) loadScript() (*script.Script, error) {
	s, err := script.Load(app.config.Script.Path, script.Options{
		Stdout:   app.opts.Stdout,
		Timeout:  app.config.Script.Timeout,
		Registry: app.opts.Registry,
	})
	if err != nil {
		return nil, err
	}
	app.logger.WithField("script", s.Name()).Debug("loaded command tree %q", s.Root().Name())
	return s, nil
}

func (app *Application) initWatcher() error {
	if !app.config.Script.Watch || app.script == nil {
		return nil
	}

	w, err := watcher.New(watcher.WithDebounce(app.config.Script.Debounce))
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	if err := w.Watch(app.config.Script.Path); err != nil {
		_ = w.Close()
		return &InitError{Component: "watcher", Err: err}
	}
	app.watcher = w

	app.wg.Add(1)
	go app.watchLoop()
	return nil
}

// Dispatch runs one input line.
func (app *Application) Dispatch(input string) (dispatcher.Result, error) {
	return app.dispatcher.Dispatch(input)
}

// Usage returns the usage lines of the current tree, with argument types
// when detailed is set.
func (app *Application) Usage(detailed bool) []string {
	if detailed {
		return usage.Detailed(app.dispatcher.Root())
	}
	return app.dispatcher.Usage()
}

// Help returns the usage lines under the command a matching, arity or
// argument error stopped at. It returns nil for other errors and for
// input that matched no command at all.
func (app *Application) Help(err error) []string {
	var de *dispatcher.Error
	if !errors.As(err, &de) || len(de.Path) == 0 {
		return nil
	}
	switch de.Kind {
	case dispatcher.ErrNameMismatch, dispatcher.ErrNoOverloadForArity,
		dispatcher.ErrTooManyArguments, dispatcher.ErrArgumentParse:
		return usage.For(app.dispatcher.Root(), de.Path[1:]...)
	default:
		return nil
	}
}

// Dispatcher returns the dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher {
	return app.dispatcher
}

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.logger
}

// Reloads returns the number of successful script reloads.
func (app *Application) Reloads() int64 {
	return app.reloads.Load()
}

// Shutdown stops the watcher, logs dispatch metrics when enabled and
// releases the script. It is safe to call more than once.
func (app *Application) Shutdown() {
	app.mu.Lock()
	if app.closed {
		app.mu.Unlock()
		return
	}
	app.closed = true
	close(app.done)
	app.mu.Unlock()

	app.logMetrics()
	app.cleanup()
}

// cleanup releases components in reverse initialization order.
func (app *Application) cleanup() {
	if app.watcher != nil {
		_ = app.watcher.Close()
	}
	app.wg.Wait()

	app.mu.Lock()
	defer app.mu.Unlock()
	if app.script != nil {
		_ = app.script.Close()
		app.script = nil
	}
}

func (app *Application) logMetrics() {
	m := app.dispatcher.Metrics()
	if m == nil {
		return
	}

	snap := m.Snapshot()
	app.logger.WithFields(map[string]any{
		"dispatches": snap.TotalDispatches,
		"errors":     snap.TotalErrors,
		"panics":     snap.TotalPanics,
		"unresolved": snap.TotalUnresolved,
		"average":    snap.AverageDuration,
	}).Info("dispatch summary")

	for _, cm := range m.TopCommands(5) {
		app.logger.WithFields(map[string]any{
			"command":    cm.Command,
			"dispatches": cm.DispatchCount,
			"error_rate": cm.ErrorRate(),
			"average":    cm.AverageDuration(),
		}).Info("command summary")
	}
	for kind, n := range m.ErrorsByKind() {
		app.logger.WithField("kind", kind).Info("%d errors", n)
	}
}
