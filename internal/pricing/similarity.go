package pricing

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// NormalizeDescription lowercases a description and collapses runs of
// whitespace so catalog keys and fuzzy matching see the same form.
func NormalizeDescription(s string) string {
	n := strings.ToLower(strings.TrimSpace(s))
	return multiSpace.ReplaceAllString(n, " ")
}

// TokenSimilarity computes Jaccard similarity on the whitespace token sets
// of two normalized descriptions (intersection over union).
func TokenSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}

	union := len(wordsA)
	for w := range wordsB {
		if !wordsA[w] {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
