// Package argtype maps argument type tags to decoders that turn token text
// into typed values.
package argtype

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Type tags an argument slot with the decoder used for it.
type Type string

// Built-in argument types.
const (
	Int    Type = "int"
	Float  Type = "float"
	String Type = "string"
	Bool   Type = "bool"
)

// ErrUnknownType is returned when a type has no registered decoder.
var ErrUnknownType = errors.New("argtype: unknown argument type")

// ParseError reports token text that a decoder rejected.
type ParseError struct {
	Text string // offending token text
	Type string // human-readable target type, e.g. "integer"
	Err  error  // underlying conversion error, may be nil
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %q as %s %s", e.Text, article(e.Type), e.Type)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func article(noun string) string {
	if noun != "" && strings.ContainsRune("aeiou", rune(noun[0])) {
		return "an"
	}
	return "a"
}

// Decoder converts token text into a value.
type Decoder interface {
	// Name is the human-readable type name used in error messages.
	Name() string

	// Decode converts text. Failures should be *ParseError.
	Decode(text string) (any, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc struct {
	TypeName string
	Fn       func(text string) (any, error)
}

// Name implements Decoder.
func (d DecoderFunc) Name() string { return d.TypeName }

// Decode implements Decoder.
func (d DecoderFunc) Decode(text string) (any, error) { return d.Fn(text) }

// IntDecoder decodes base-10 integers into int.
type IntDecoder struct{}

func (IntDecoder) Name() string { return "integer" }

func (d IntDecoder) Decode(text string) (any, error) {
	v, err := strconv.ParseInt(text, 10, strconv.IntSize)
	if err != nil {
		return nil, &ParseError{Text: text, Type: d.Name(), Err: err}
	}
	return int(v), nil
}

// FloatDecoder decodes decimal floating-point numbers into float64.
type FloatDecoder struct{}

func (FloatDecoder) Name() string { return "float" }

func (d FloatDecoder) Decode(text string) (any, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, &ParseError{Text: text, Type: d.Name(), Err: err}
	}
	return v, nil
}

// StringDecoder returns the text unchanged. It never fails.
type StringDecoder struct{}

func (StringDecoder) Name() string { return "string" }

func (StringDecoder) Decode(text string) (any, error) { return text, nil }

// BoolDecoder accepts the forms understood by strconv.ParseBool.
type BoolDecoder struct{}

func (BoolDecoder) Name() string { return "boolean" }

func (d BoolDecoder) Decode(text string) (any, error) {
	v, err := strconv.ParseBool(text)
	if err != nil {
		return nil, &ParseError{Text: text, Type: d.Name(), Err: err}
	}
	return v, nil
}

// EnumDecoder accepts one of a fixed set of words and returns it as a string.
type EnumDecoder struct {
	name    string
	options []string
}

// Enum creates a decoder that only accepts the given options.
func Enum(name string, options ...string) *EnumDecoder {
	opts := make([]string, len(options))
	copy(opts, options)
	return &EnumDecoder{name: name, options: opts}
}

func (d *EnumDecoder) Name() string { return d.name }

// Options returns the accepted words.
func (d *EnumDecoder) Options() []string {
	out := make([]string, len(d.options))
	copy(out, d.options)
	return out
}

func (d *EnumDecoder) Decode(text string) (any, error) {
	for _, opt := range d.options {
		if opt == text {
			return text, nil
		}
	}
	return nil, &ParseError{
		Text: text,
		Type: d.name,
		Err:  fmt.Errorf("must be one of: %s", strings.Join(d.options, ", ")),
	}
}

// Registry maps argument types to decoders.
// Registration happens at startup; lookups are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	decoders map[Type]Decoder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[Type]Decoder)}
}

// Default creates a registry holding the built-in decoders.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Int, IntDecoder{})
	r.Register(Float, FloatDecoder{})
	r.Register(String, StringDecoder{})
	r.Register(Bool, BoolDecoder{})
	return r
}

// Register makes a decoder available for typ.
// It panics if typ is empty, the decoder is nil, or typ is already registered.
func (r *Registry) Register(typ Type, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if typ == "" {
		panic("argtype: register with empty type")
	}
	if d == nil {
		panic("argtype: register decoder is nil")
	}
	if _, dup := r.decoders[typ]; dup {
		panic(fmt.Sprintf("argtype: register called twice for type %q", typ))
	}
	r.decoders[typ] = d
}

// Lookup returns the decoder for typ and whether it exists.
func (r *Registry) Lookup(typ Type) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[typ]
	return d, ok
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ Type) bool {
	_, ok := r.Lookup(typ)
	return ok
}

// Decode converts text using the decoder registered for typ.
func (r *Registry) Decode(typ Type, text string) (any, error) {
	d, ok := r.Lookup(typ)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, typ)
	}
	return d.Decode(text)
}

// Types returns the registered type tags in sorted order.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]Type, 0, len(r.decoders))
	for t := range r.decoders {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
