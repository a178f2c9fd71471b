// Package normalize implements the Team Normalizer of spec §4.1: turning a
// raw, source-specific team name into a canonical form, scoring similarity
// between two names, and resolving (name, source) pairs to a team id while
// learning aliases as it goes.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// clubPrefixes is the closed set of sport-club prefixes stripped during
// normalization (spec §4.1). Longer prefixes are tried first so "RCD" is
// not swallowed by a shorter accidental match.
var clubPrefixes = []string{
	"RCD", "VfB", "FC", "AC", "AS", "SC", "SK", "FK", "NK",
}

// clubSuffixes is the closed set of sport-club suffixes stripped during
// normalization.
var clubSuffixes = []string{"AFC", "FC", "SC"}

var (
	parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	bracketedCodeRe = regexp.MustCompile(`\s*\[[A-Za-z]{2,3}\]\s*$`)
	trailingYearRe  = regexp.MustCompile(`\s+\d{4}\s*$`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Normalize applies the ordered rewrite pipeline from spec §4.1. It is
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = stripLeadingThe(s)
	s = stripClubPrefix(s)
	s = stripClubSuffix(s)
	s = parentheticalRe.ReplaceAllString(s, "")
	s = bracketedCodeRe.ReplaceAllString(s, "")
	s = trailingYearRe.ReplaceAllString(s, "")
	s = collapseWhitespace(s)
	return s
}

func stripLeadingThe(s string) string {
	const prefix = "The "
	if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return strings.TrimSpace(s[len(prefix):])
	}
	return s
}

func stripClubPrefix(s string) string {
	for _, p := range clubPrefixes {
		if hasWordPrefix(s, p) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

func stripClubSuffix(s string) string {
	for _, suf := range clubSuffixes {
		if hasWordSuffix(s, suf) {
			return strings.TrimSpace(s[:len(s)-len(suf)])
		}
	}
	return s
}

func hasWordPrefix(s, word string) bool {
	if len(s) <= len(word) || !strings.EqualFold(s[:len(word)], word) {
		return false
	}
	return s[len(word)] == ' ' || s[len(word)] == '.'
}

func hasWordSuffix(s, word string) bool {
	if len(s) <= len(word) || !strings.EqualFold(s[len(s)-len(word):], word) {
		return false
	}
	before := s[len(s)-len(word)-1]
	return before == ' ' || before == '.'
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// SearchKey produces the lowercased, accent-folded, punctuation-stripped
// form used purely for similarity scoring (spec §4.1): comparable but not
// meant for display, unlike Normalize's output.
func SearchKey(s string) string {
	s = foldAccents(s)
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isAlnumOrSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return collapseWhitespace(b.String())
}

func isAlnumOrSpace(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' '
}

// foldAccents strips combining diacritics so "Atlético" compares equal to
// "Atletico" (spec §4.1 similarity is computed on a folded search key).
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
