package normalize

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// Similarity scores two raw names in [0,1], combining Levenshtein-ratio
// edit distance with Jaccard token overlap, per spec §4.1. Levenshtein
// dominates for single-word names; token overlap becomes meaningful as
// word count grows. Symmetric: Similarity(a,b) == Similarity(b,a).
func Similarity(a, b string) float64 {
	ka, kb := SearchKey(a), SearchKey(b)
	if ka == kb {
		return 1
	}
	if ka == "" || kb == "" {
		return 0
	}

	// Short-circuit: length ratio differs by more than 50%.
	la, lb := len(ka), len(kb)
	shorter, longer := la, lb
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if longer > 0 && float64(shorter)/float64(longer) < 0.5 {
		return 0
	}

	levRatio := levenshteinRatio(ka, kb)

	tokensA := tokenize(ka)
	tokensB := tokenize(kb)
	maxWords := len(tokensA)
	if len(tokensB) > maxWords {
		maxWords = len(tokensB)
	}

	if maxWords <= 1 {
		return levRatio
	}

	tokenWeight := 0.15 * float64(maxWords)
	if tokenWeight > 0.6 {
		tokenWeight = 0.6
	}
	jaccard := tokenJaccard(tokensA, tokensB)

	return (1-tokenWeight)*levRatio + tokenWeight*jaccard
}

// levenshteinRatio converts edit distance to a [0,1] ratio:
// 1 - distance/max(len(a), len(b)).
func levenshteinRatio(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	// go-edlib's Levenshtein similarity already returns a [0,1] ratio;
	// treat it directly as the ratio spec §4.1 describes.
	return float64(dist)
}

// tokenize splits a search key into tokens of length > 2, per spec §4.1:
// "Jaccard token overlap on tokens of length > 2".
func tokenize(s string) []string {
	fields := strings.Fields(s)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// tokenJaccard computes |A ∩ B| / |A ∪ B| over token sets.
func tokenJaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}

	union := make(map[string]bool, len(setA)+len(setB))
	for t := range setA {
		union[t] = true
	}
	for t := range setB {
		union[t] = true
	}
	if len(union) == 0 {
		return 1
	}

	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	return float64(inter) / float64(len(union))
}
