package lexer

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		tokens []string
		err    error
	}{
		{"empty", "", nil, nil},
		{"only spaces", "    ", nil, nil},
		{"single word", "elytra", []string{"elytra"}, nil},
		{"surrounding spaces", "  elytra   repack  ", []string{"elytra", "repack"}, nil},
		{
			"quoted tokens",
			`elytra test sneed 1.2 "-2.2" "1"`,
			[]string{"elytra", "test", "sneed", "1.2", "-2.2", "1"},
			nil,
		},
		{"quoted with spaces", `say "hello world"`, []string{"say", "hello world"}, nil},
		{"empty quotes", `say ""`, []string{"say", ""}, nil},
		{"no escapes", `a "b\" c`, []string{"a", `b\`, "c"}, nil},
		{"quote glued to word", `"a"b`, []string{"a", "b"}, nil},
		{"tabs are not separators", "a\tb c", []string{"a\tb", "c"}, nil},
		{"unbalanced", `elytra "open`, []string{"elytra"}, ErrUnbalancedQuote},
		{"unbalanced first", `"open`, nil, ErrUnbalancedQuote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Split(tt.input)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Split(%q) error = %v, want %v", tt.input, err, tt.err)
			}
			if !reflect.DeepEqual(tokens, tt.tokens) {
				t.Errorf("Split(%q) = %q, want %q", tt.input, tokens, tt.tokens)
			}
		})
	}
}

func TestLexer_EndOfInputIsSticky(t *testing.T) {
	l := New("one")

	if tok, ok, err := l.Next(); tok != "one" || !ok || err != nil {
		t.Fatalf("Next() = %q, %v, %v; want \"one\", true, nil", tok, ok, err)
	}
	for i := 0; i < 3; i++ {
		if _, ok, err := l.Next(); ok || err != nil {
			t.Fatalf("Next() after end = %v, %v; want false, nil", ok, err)
		}
		if !l.AtEnd() {
			t.Fatal("expected AtEnd() after end of input")
		}
	}
}

func TestLexer_UnbalancedQuoteIsSticky(t *testing.T) {
	l := New(`elytra "open`)

	if tok, _, err := l.Next(); tok != "elytra" || err != nil {
		t.Fatalf("first Next() = %q, %v", tok, err)
	}
	offset := l.Offset()
	for i := 0; i < 3; i++ {
		if _, _, err := l.Peek(); !errors.Is(err, ErrUnbalancedQuote) {
			t.Fatalf("Peek() error = %v, want ErrUnbalancedQuote", err)
		}
		if _, ok, err := l.Next(); ok || !errors.Is(err, ErrUnbalancedQuote) {
			t.Fatalf("Next() = %v, %v; want false, ErrUnbalancedQuote", ok, err)
		}
		if l.AtEnd() {
			t.Fatal("AtEnd() must be false after a lexical error")
		}
		if l.Offset() != offset {
			t.Fatalf("Offset() moved from %d to %d after error", offset, l.Offset())
		}
	}
}

func TestLexer_PeekIsIdempotent(t *testing.T) {
	l := New("a b")

	for i := 0; i < 3; i++ {
		if tok, ok, _ := l.Peek(); tok != "a" || !ok {
			t.Fatalf("Peek() = %q, %v; want \"a\", true", tok, ok)
		}
	}
	l.Next()
	if tok, _, _ := l.Peek(); tok != "b" {
		t.Errorf("Peek() after Next() = %q, want \"b\"", tok)
	}
}

func TestLexer_CopyIsSnapshot(t *testing.T) {
	l := New("root left right")
	l.Next()

	snapshot := l
	l.Next()
	l.Next()

	if tok, ok, _ := snapshot.Next(); tok != "left" || !ok {
		t.Errorf("snapshot Next() = %q, %v; want \"left\", true", tok, ok)
	}
	if !l.AtEnd() {
		t.Error("original lexer should be exhausted")
	}
}

func TestLexer_Remaining(t *testing.T) {
	l := New("cmd arg1 arg2")
	if got := l.Remaining(); got != " arg1 arg2" {
		t.Errorf("Remaining() = %q, want %q", got, " arg1 arg2")
	}
	l.Next()
	if got := l.Remaining(); got != " arg2" {
		t.Errorf("Remaining() = %q, want %q", got, " arg2")
	}
}

func TestZeroValueIsExhausted(t *testing.T) {
	var l Lexer
	if !l.AtEnd() {
		t.Error("zero Lexer should be at end")
	}
	if _, ok, err := l.Next(); ok || err != nil {
		t.Errorf("zero Lexer Next() = %v, %v", ok, err)
	}
}
