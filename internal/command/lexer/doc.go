// Package lexer splits a raw command line into tokens.
//
// Tokens are separated by runs of plain spaces. A token that starts with a
// double quote extends to the next double quote and yields the text between
// them; there is no escape processing. An opening quote without a matching
// closing quote is a lexical error that sticks: every later read reports
// ErrUnbalancedQuote.
//
// The lexer always holds the next token pre-computed, so callers can ask
// whether input is exhausted (Peek) before consuming anything. A Lexer is a
// small value: copying it takes a snapshot of the read position, which is
// how the dispatcher backtracks across sibling commands.
//
//	lx := lexer.New(`elytra test sneed 1.2 "-2.2" "1"`)
//	for {
//	    tok, ok, err := lx.Next()
//	    if err != nil || !ok {
//	        break
//	    }
//	    fmt.Println(tok)
//	}
package lexer
