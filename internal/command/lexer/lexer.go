package lexer

import "errors"

// ErrUnbalancedQuote is returned when a quoted token has no closing quote.
var ErrUnbalancedQuote = errors.New("unbalanced quotes")

const (
	space = ' '
	quote = '"'
)

// Lexer reads tokens from a command line one step ahead of consumption.
// The zero value behaves as an exhausted lexer.
type Lexer struct {
	input string
	pos   int // offset of the first byte not yet scanned

	// pre-computed result of the next read
	tok string
	ok  bool
	err error
}

// New creates a lexer over input and scans the first token.
func New(input string) Lexer {
	l := Lexer{input: input}
	l.advance()
	return l
}

// Peek returns the next token without consuming it.
// ok is false once input is exhausted.
func (l *Lexer) Peek() (tok string, ok bool, err error) {
	return l.tok, l.ok, l.err
}

// Next returns the next token and scans the one after it.
// After end of input it keeps returning ok == false; after an unbalanced
// quote it keeps returning ErrUnbalancedQuote.
func (l *Lexer) Next() (tok string, ok bool, err error) {
	tok, ok, err = l.tok, l.ok, l.err
	if ok {
		l.advance()
	}
	return tok, ok, err
}

// AtEnd reports whether input is exhausted without error.
func (l *Lexer) AtEnd() bool {
	return !l.ok && l.err == nil
}

// Offset returns the byte offset just past the pre-computed token.
func (l *Lexer) Offset() int {
	return l.pos
}

// Remaining returns the input that has not been scanned yet.
func (l *Lexer) Remaining() string {
	return l.input[l.pos:]
}

// advance scans the next token starting at pos.
func (l *Lexer) advance() {
	if l.err != nil {
		return
	}
	start, end, next, found, err := scan(l.input, l.pos)
	switch {
	case err != nil:
		l.tok, l.ok, l.err = "", false, err
	case !found:
		l.tok, l.ok = "", false
		l.pos = len(l.input)
	default:
		l.tok, l.ok = l.input[start:end], true
		l.pos = next
	}
}

// scan finds the token at or after from. It returns the token bounds and the
// offset where scanning resumes. found is false when only spaces remain.
func scan(s string, from int) (start, end, next int, found bool, err error) {
	i := from
	for i < len(s) && s[i] == space {
		i++
	}
	if i >= len(s) {
		return 0, 0, len(s), false, nil
	}

	if s[i] == quote {
		for j := i + 1; j < len(s); j++ {
			if s[j] == quote {
				return i + 1, j, j + 1, true, nil
			}
		}
		return 0, 0, from, false, ErrUnbalancedQuote
	}

	j := i
	for j < len(s) && s[j] != space {
		j++
	}
	return i, j, j, true, nil
}

// Split drains a lexer over input into a slice of tokens.
func Split(input string) ([]string, error) {
	l := New(input)
	var tokens []string
	for {
		tok, ok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}
