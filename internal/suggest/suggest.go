package suggest

import (
	"sort"
	"strings"
)

// Suggestion is a ranked usage string.
type Suggestion struct {
	Text  string
	Score int
}

// Options configures a Suggester.
type Options struct {
	// CacheSize is the number of inputs whose results are cached.
	// Zero disables caching.
	CacheSize int

	// MaxDistance is the largest edit distance accepted between words.
	MaxDistance int

	// MinScore drops suggestions scoring at or below it.
	MinScore int
}

// DefaultOptions returns the options used by the dispatcher.
func DefaultOptions() Options {
	return Options{
		CacheSize:   256,
		MaxDistance: 2,
		MinScore:    0,
	}
}

type candidate struct {
	text  string
	words []string
}

// Suggester ranks a fixed set of usage strings.
type Suggester struct {
	candidates []candidate
	cache      *Cache
	opts       Options
}

// New creates a suggester over usage strings.
func New(usages []string, opts Options) *Suggester {
	s := &Suggester{
		candidates: make([]candidate, 0, len(usages)),
		opts:       opts,
	}
	if opts.CacheSize > 0 {
		s.cache = NewCache(opts.CacheSize)
	}
	for _, u := range usages {
		s.candidates = append(s.candidates, candidate{text: u, words: literalWords(u)})
	}
	return s
}

// literalWords drops <placeholder> words from a usage string.
func literalWords(u string) []string {
	fields := strings.Fields(u)
	words := fields[:0]
	for _, f := range fields {
		if strings.HasPrefix(f, "<") && strings.HasSuffix(f, ">") {
			break
		}
		words = append(words, f)
	}
	return words
}

// Suggest returns at most limit usage strings ranked for input, best first.
// A limit of zero or less returns every match.
func (s *Suggester) Suggest(input string, limit int) []Suggestion {
	key := strings.Join(strings.Fields(input), " ")
	if key == "" {
		return nil
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return applyLimit(cached, limit)
		}
	}

	query := strings.Fields(key)
	results := make([]Suggestion, 0, len(s.candidates))
	for _, c := range s.candidates {
		score := s.score(query, c.words)
		if score > s.opts.MinScore {
			results = append(results, Suggestion{Text: c.text, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if s.cache != nil {
		s.cache.Set(key, results)
	}
	return applyLimit(results, limit)
}

// score compares query and literal words position by position and stops at
// the first position that does not match. A candidate that only matches
// exactly, without reaching any differing word, is still scored so that
// incomplete input suggests its completions.
func (s *Suggester) score(query, words []string) int {
	total := 0
	n := min(len(query), len(words))
	for i := 0; i < n; i++ {
		ws := wordScore(query[i], words[i], s.opts.MaxDistance)
		if ws == 0 {
			break
		}
		total += ws
	}
	if total == 0 {
		return 0
	}
	// Prefer candidates whose literal length is close to the input's.
	if extra := len(words) - len(query); extra > 0 {
		total -= 5 * extra
	}
	if total < 1 {
		total = 1
	}
	return total
}

func applyLimit(results []Suggestion, limit int) []Suggestion {
	if limit <= 0 || limit >= len(results) {
		return results
	}
	return results[:limit]
}

// Clear drops cached results.
func (s *Suggester) Clear() {
	if s.cache != nil {
		s.cache.Clear()
	}
}
