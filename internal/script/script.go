package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/cmdtree/internal/command/argtype"
	"github.com/dshills/cmdtree/internal/command/tree"
)

// DefaultTimeout bounds each handler call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// nodeSpec is a decoded tree table.
type nodeSpec struct {
	Name      string         `mapstructure:"name"`
	Run       any            `mapstructure:"run"`
	Overloads []overloadSpec `mapstructure:"overloads"`
	Children  []nodeSpec     `mapstructure:"children"`
}

type overloadSpec struct {
	Args []argSpec `mapstructure:"args"`
	Run  any       `mapstructure:"run"`
}

type argSpec struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

// document is the table a script returns or the globals it defines.
type document struct {
	Tree  *nodeSpec           `mapstructure:"tree"`
	Types map[string][]string `mapstructure:"types"`
}

// Options configures script loading.
type Options struct {
	// Stdout receives print output. Defaults to os.Stdout.
	Stdout io.Writer

	// Timeout bounds each handler call. Zero uses DefaultTimeout; a
	// negative value disables the limit.
	Timeout time.Duration

	// Registry supplies the base decoders. Script enumerations are added
	// to a copy. Defaults to argtype.Default().
	Registry *argtype.Registry
}

// Script is a command tree defined in Lua. Its handlers call back into the
// script's Lua state, so the Script must stay open while the tree is used.
type Script struct {
	name     string
	state    *state
	root     *tree.Node
	registry *argtype.Registry
}

// Load reads and runs the script at path.
func Load(path string, opts Options) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}
	return LoadString(path, string(data), opts)
}

// LoadString runs code and builds the tree it defines. The tree comes from
// the chunk's return value, or from the globals tree and types.
//
// The tree table has a name plus any of:
//
//	run       function of no arguments (zero-argument overload)
//	overloads list of {args = {"name:type", ...}, run = function(...) end}
//	children  list of child tree tables
func LoadString(name, code string, opts Options) (*Script, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	switch {
	case opts.Timeout == 0:
		opts.Timeout = DefaultTimeout
	case opts.Timeout < 0:
		opts.Timeout = 0
	}

	st := newState(opts.Stdout, opts.Timeout)
	s := &Script{name: name, state: st}

	if err := s.build(code, opts.Registry); err != nil {
		st.close()
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	return s, nil
}

func (s *Script) build(code string, base *argtype.Registry) error {
	results, err := s.state.doString(s.name, code)
	if err != nil {
		return err
	}

	doc, err := s.document(results)
	if err != nil {
		return err
	}

	s.registry = argtype.Default()
	if base != nil {
		s.registry = cloneRegistry(base)
	}
	for typeName, options := range doc.Types {
		if s.registry.Has(argtype.Type(typeName)) {
			return fmt.Errorf("%w: type %q is already defined", ErrInvalidSpec, typeName)
		}
		if len(options) == 0 {
			return fmt.Errorf("%w: type %q has no options", ErrInvalidSpec, typeName)
		}
		s.registry.Register(argtype.Type(typeName), argtype.Enum(typeName, options...))
	}

	builder, err := s.builder(doc.Tree, nil)
	if err != nil {
		return err
	}
	root, err := builder.Build(tree.WithRegistry(s.registry))
	if err != nil {
		return err
	}
	s.root = root
	return nil
}

// document finds the tree definition in the chunk results or globals.
func (s *Script) document(results []lua.LValue) (*document, error) {
	raw := map[string]any{}
	if len(results) > 0 {
		if t, ok := results[0].(*lua.LTable); ok {
			m, isMap := toGo(t).(map[string]any)
			if !isMap {
				return nil, fmt.Errorf("%w: returned table must have a name or a tree field", ErrInvalidSpec)
			}
			if _, hasName := m["name"]; hasName {
				raw["tree"] = m
			} else {
				raw = m
			}
		}
	}
	if _, ok := raw["tree"]; !ok {
		if g := s.state.getGlobal("tree"); g != lua.LNil {
			raw["tree"] = toGo(g)
		}
	}
	if _, ok := raw["types"]; !ok {
		if g := s.state.getGlobal("types"); g != lua.LNil {
			raw["types"] = toGo(g)
		}
	}
	if raw["tree"] == nil {
		return nil, ErrNoTree
	}

	var doc document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       argSpecHook,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return &doc, nil
}

var argSpecType = reflect.TypeOf(argSpec{})

// argSpecHook accepts "name:type" strings and {"name", "type"} pairs for
// argument slots. A bare name is a string argument.
func argSpecHook(from, to reflect.Type, data any) (any, error) {
	if to != argSpecType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		name, typ, found := strings.Cut(v, ":")
		if !found {
			typ = string(argtype.String)
		}
		return map[string]any{"name": name, "type": typ}, nil
	case []any:
		if len(v) != 2 {
			return nil, fmt.Errorf("argument pair must have 2 elements, got %d", len(v))
		}
		return map[string]any{"name": v[0], "type": v[1]}, nil
	default:
		return data, nil
	}
}

func (s *Script) builder(spec *nodeSpec, parent []string) (*tree.Builder, error) {
	if spec == nil {
		return nil, ErrNoTree
	}
	path := append(parent[:len(parent):len(parent)], spec.Name)
	b := tree.Literal(spec.Name)

	if spec.Run != nil {
		fn, err := luaFunction(spec.Run, path, "run")
		if err != nil {
			return nil, err
		}
		b.Executes(s.handler(fn))
	}

	for i, o := range spec.Overloads {
		fn, err := luaFunction(o.Run, path, fmt.Sprintf("overloads[%d].run", i+1))
		if err != nil {
			return nil, err
		}
		slots := make([]tree.Slot, len(o.Args))
		for j, a := range o.Args {
			slots[j] = tree.Arg(a.Name, argtype.Type(a.Type))
		}
		b.Accepts(s.handler(fn), slots...)
	}

	for i := range spec.Children {
		child, err := s.builder(&spec.Children[i], path)
		if err != nil {
			return nil, err
		}
		b.Then(child)
	}
	return b, nil
}

func luaFunction(v any, path []string, field string) (*lua.LFunction, error) {
	fn, ok := v.(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%w: %q: %s must be a function, got %T", ErrInvalidSpec, strings.Join(path, " "), field, v)
	}
	return fn, nil
}

// handler adapts a Lua function. A Lua error, or a false/nil first result
// followed by a message, becomes the handler's error.
func (s *Script) handler(fn *lua.LFunction) tree.Handler {
	return func(args tree.Args) error {
		values := args.Values()
		largs := make([]lua.LValue, len(values))
		for i, v := range values {
			largs[i] = toLua(v)
		}

		results, err := s.state.callFunction(fn, largs...)
		if err != nil {
			var apiErr *lua.ApiError
			if errors.As(err, &apiErr) {
				return fmt.Errorf("lua: %s", apiErr.Object.String())
			}
			return err
		}
		if len(results) >= 2 && !lua.LVAsBool(results[0]) {
			return errors.New(results[1].String())
		}
		return nil
	}
}

// Root returns the command tree.
func (s *Script) Root() *tree.Node {
	return s.root
}

// Registry returns the decoders the tree was validated against, including
// the script's enumerations.
func (s *Script) Registry() *argtype.Registry {
	return s.registry
}

// Name returns the path or name the script was loaded from.
func (s *Script) Name() string {
	return s.name
}

// Close releases the Lua state. Handlers called afterwards fail with
// ErrStateClosed.
func (s *Script) Close() error {
	s.state.close()
	return nil
}

func cloneRegistry(base *argtype.Registry) *argtype.Registry {
	r := argtype.NewRegistry()
	for _, t := range base.Types() {
		d, _ := base.Lookup(t)
		r.Register(t, d)
	}
	return r
}
