// Package suggest ranks usage strings against input that matched no command.
//
// Each usage string contributes its literal words (argument placeholders
// are ignored). Input words are compared position by position with the
// literal words; a position scores when the words are equal, when the input
// is a prefix of the literal, when they are within a small edit distance,
// or when the input characters appear in order inside the literal. The
// first position that does not score ends the comparison.
//
//	s := suggest.New(usage.Generate(root), suggest.DefaultOptions())
//	for _, sg := range s.Suggest("elytra repak", 3) {
//	    fmt.Println(sg.Text)
//	}
//
// Results for repeated inputs are served from an LRU cache.
package suggest
