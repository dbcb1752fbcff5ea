package dispatcher

import (
	"strings"

	"github.com/dshills/cmdtree/internal/command/lexer"
	"github.com/dshills/cmdtree/internal/command/tree"
)

// Call is a matched command with its selected overload and the raw
// argument tokens, before decoding.
type Call struct {
	// Input is the raw line.
	Input string

	// Path is the matched names from the root to the command node.
	Path []string

	// Overload is the overload selected by argument count.
	Overload *tree.Overload

	// Tokens are the argument tokens, one per slot of Overload.
	Tokens []string
}

// Command returns the matched path joined with spaces.
func (c *Call) Command() string {
	return strings.Join(c.Path, " ")
}

// Arity returns the number of argument tokens.
func (c *Call) Arity() int {
	return len(c.Tokens)
}

// resolve matches input against root without decoding or invoking.
func resolve(root *tree.Node, input string) (*Call, error) {
	lx := lexer.New(input)
	call, err := match(root, &lx, nil)
	if err != nil {
		return nil, err
	}
	call.Input = input
	return call, nil
}

// match consumes the node's name from lx, then either descends into the
// children or selects an overload. Children are tried on independent
// copies of lx; a mismatch moves on to the next sibling while any other
// error ends the search.
func match(n *tree.Node, lx *lexer.Lexer, parent []string) (*Call, error) {
	tok, ok, err := lx.Next()
	if err != nil {
		return nil, &Error{Kind: ErrUnbalancedQuote, Path: parent}
	}
	if !ok || tok != n.Name() {
		return nil, &Error{Kind: ErrNameMismatch, Path: parent}
	}

	path := make([]string, len(parent), len(parent)+1)
	copy(path, parent)
	path = append(path, tok)

	if n.HasChildren() {
		return matchChildren(n, lx, path)
	}
	return selectOverload(n, lx, path)
}

func matchChildren(n *tree.Node, lx *lexer.Lexer, path []string) (*Call, error) {
	if bare := n.Overload(0); bare != nil && lx.AtEnd() {
		return &Call{Path: path, Overload: bare}, nil
	}

	var deepest *Error
	for _, child := range n.Children() {
		branch := *lx
		call, err := match(child, &branch, path)
		if err == nil {
			return call, nil
		}
		mm, ok := isMismatch(err)
		if !ok {
			return nil, err
		}
		if deepest == nil || len(mm.Path) > len(deepest.Path) {
			deepest = mm
		}
	}

	if deepest == nil || len(deepest.Path) < len(path) {
		deepest = &Error{Kind: ErrNameMismatch, Path: path}
	}
	return nil, deepest
}

func selectOverload(n *tree.Node, lx *lexer.Lexer, path []string) (*Call, error) {
	highest := n.MaxArity()
	tokens := make([]string, 0, max(highest, 0))

	for {
		tok, ok, err := lx.Next()
		if err != nil {
			return nil, &Error{Kind: ErrUnbalancedQuote, Path: path, Arity: len(tokens), Max: highest}
		}
		if !ok {
			o := n.Overload(len(tokens))
			if o == nil {
				return nil, &Error{Kind: ErrNoOverloadForArity, Path: path, Arity: len(tokens), Max: highest}
			}
			return &Call{Path: path, Overload: o, Tokens: tokens}, nil
		}
		if len(tokens) == highest {
			return nil, &Error{Kind: ErrTooManyArguments, Path: path, Arity: len(tokens) + 1, Max: highest}
		}
		tokens = append(tokens, tok)
	}
}
