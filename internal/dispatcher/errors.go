package dispatcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/cmdtree/internal/command/lexer"
)

// Dispatch error kinds. Every error returned by Dispatch or Resolve is an
// *Error whose Kind is one of these, so errors.Is works against them.
var (
	// ErrUnbalancedQuote indicates a quoted token was never closed.
	ErrUnbalancedQuote = lexer.ErrUnbalancedQuote

	// ErrNameMismatch indicates no command path matches the input.
	ErrNameMismatch = errors.New("dispatcher: no command matches input")

	// ErrNoOverloadForArity indicates the command has no overload taking
	// the number of arguments given.
	ErrNoOverloadForArity = errors.New("dispatcher: no overload for argument count")

	// ErrTooManyArguments indicates more arguments than the largest overload.
	ErrTooManyArguments = errors.New("dispatcher: too many arguments given to command")

	// ErrArgumentParse indicates an argument failed to decode.
	ErrArgumentParse = errors.New("dispatcher: argument parse failed")

	// ErrHandler indicates the handler returned an error.
	ErrHandler = errors.New("dispatcher: handler failed")

	// ErrHandlerPanic indicates the handler panicked and was recovered.
	ErrHandlerPanic = errors.New("dispatcher: handler panic")

	// ErrCancelled indicates a pre-dispatch hook cancelled the call.
	ErrCancelled = errors.New("dispatcher: dispatch cancelled by hook")
)

// Error describes a failed dispatch.
type Error struct {
	// Kind is one of the Err* sentinels.
	Kind error

	// Path is the matched command path. For mismatches it is the deepest
	// node whose children all failed to match; it is empty when the root
	// itself did not match.
	Path []string

	// Arity is the number of arguments seen. For ErrTooManyArguments it
	// is a lower bound.
	Arity int

	// Max is the largest overload arity of the command.
	Max int

	// Index is the position of the argument that failed to decode.
	Index int

	// Cause is the underlying error, such as an *argtype.ParseError or
	// the error returned by a handler.
	Cause error

	// Suggestions holds usage strings close to the input for mismatches.
	Suggestions []string
}

// Command returns the matched path joined with spaces.
func (e *Error) Command() string {
	return strings.Join(e.Path, " ")
}

func (e *Error) Error() string {
	cmd := e.Command()
	switch e.Kind {
	case ErrUnbalancedQuote:
		return "unbalanced quotes"
	case ErrNameMismatch:
		if cmd == "" {
			return "no command matches input"
		}
		return fmt.Sprintf("no subcommand of %q matches input", cmd)
	case ErrNoOverloadForArity:
		return fmt.Sprintf("%q: no overload with %d args", cmd, e.Arity)
	case ErrTooManyArguments:
		return fmt.Sprintf("%q: too many arguments given to command (takes at most %d)", cmd, e.Max)
	case ErrArgumentParse:
		return fmt.Sprintf("%q: argument %d: %v", cmd, e.Index+1, e.Cause)
	case ErrHandler:
		return fmt.Sprintf("%q: %v", cmd, e.Cause)
	case ErrHandlerPanic:
		return fmt.Sprintf("%q: handler panic: %v", cmd, e.Cause)
	case ErrCancelled:
		return fmt.Sprintf("%q: dispatch cancelled by hook", cmd)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("%q: %v", cmd, e.Cause)
		}
		return fmt.Sprintf("%q: dispatch failed", cmd)
	}
}

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// KindName returns a short stable name for the kind of err, used for
// metrics and log fields. It returns "" for nil and "other" for errors
// that did not come from the dispatcher.
func KindName(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if !errors.As(err, &de) {
		return "other"
	}
	switch de.Kind {
	case ErrUnbalancedQuote:
		return "unbalanced_quote"
	case ErrNameMismatch:
		return "name_mismatch"
	case ErrNoOverloadForArity:
		return "no_overload"
	case ErrTooManyArguments:
		return "too_many_arguments"
	case ErrArgumentParse:
		return "argument_parse"
	case ErrHandler:
		return "handler"
	case ErrHandlerPanic:
		return "panic"
	case ErrCancelled:
		return "cancelled"
	default:
		return "other"
	}
}

func isMismatch(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) && de.Kind == ErrNameMismatch {
		return de, true
	}
	return nil, false
}
