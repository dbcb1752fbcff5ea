package suggest

import "unicode"

// Word-level scores. A full match always beats any partial one.
const (
	scoreExact       = 100
	scorePrefix      = 70
	scoreEditBase    = 60
	scoreEditPerStep = 15
	scoreSubsequence = 20
)

// wordScore rates how well the input word q matches the literal c.
// Zero means no match.
func wordScore(q, c string, maxDistance int) int {
	if q == c {
		return scoreExact
	}
	qr, cr := []rune(q), []rune(c)
	if len(qr) == 0 {
		return 0
	}
	if hasPrefix(cr, qr) {
		return scorePrefix
	}
	if d := distance(qr, cr); d <= maxDistance && d < len(cr) {
		return scoreEditBase - scoreEditPerStep*d
	}
	if matches := subsequence(qr, cr); matches != nil {
		return subsequenceScore(cr, matches)
	}
	return 0
}

func hasPrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i, r := range prefix {
		if unicode.ToLower(s[i]) != unicode.ToLower(r) {
			return false
		}
	}
	return true
}

// subsequence returns the rune indices of c matched greedily, left to right,
// by the runes of q, or nil if q is not a subsequence of c.
func subsequence(q, c []rune) []int {
	matches := make([]int, 0, len(q))
	qi := 0
	for i := 0; i < len(c) && qi < len(q); i++ {
		if unicode.ToLower(c[i]) == unicode.ToLower(q[qi]) {
			matches = append(matches, i)
			qi++
		}
	}
	if qi != len(q) {
		return nil
	}
	return matches
}

// subsequenceScore favors consecutive runs, word boundaries and early
// starts, and penalizes gaps.
func subsequenceScore(c []rune, matches []int) int {
	score := scoreSubsequence

	for i := 1; i < len(matches); i++ {
		if matches[i] == matches[i-1]+1 {
			score += 4
		}
	}
	for _, idx := range matches {
		if isWordBoundary(c, idx) {
			score += 3
		}
	}
	if matches[0] == 0 {
		score += 5
	}
	if len(matches) > 1 {
		gap := matches[len(matches)-1] - matches[0] - len(matches) + 1
		score -= gap
	}

	// Stay below the weakest edit-distance score.
	if score > scoreEditBase-scoreEditPerStep*3 {
		score = scoreEditBase - scoreEditPerStep*3
	}
	if score < 1 {
		score = 1
	}
	return score
}

func isWordBoundary(runes []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	if idx >= len(runes) {
		return false
	}
	prev, cur := runes[idx-1], runes[idx]
	if unicode.IsSpace(prev) || unicode.IsPunct(prev) {
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(cur)
}

// distance is the Levenshtein distance between a and b, case-insensitive.
func distance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if unicode.ToLower(a[i-1]) == unicode.ToLower(b[j-1]) {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
