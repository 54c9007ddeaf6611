// Package textnorm turns raw expense descriptions into canonical keyword
// sets and merchant-name candidates for the learning store.
package textnorm

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minTokenLen  = 3
	minBigramLen = 5
)

// ExtractKeywords lower-cases a description, strips everything but
// letters, digits, whitespace and hyphens, and returns the deduplicated
// set of surviving unigrams and bigrams. The result is sorted so callers
// get a stable order; set semantics are what matters.
func ExtractKeywords(description string) []string {
	words := tokenize(description)
	if len(words) == 0 {
		return nil
	}

	seen := make(map[string]struct{})

	// Unigrams: drop short tokens and stop-words.
	for _, w := range words {
		if utf8.RuneCountInString(w) < minTokenLen || IsStopWord(w) {
			continue
		}
		seen[w] = struct{}{}
	}

	// Bigrams from the original word sequence: both halves must carry
	// signal, and the pair must be long enough to be distinctive.
	for i := 0; i+1 < len(words); i++ {
		a, b := words[i], words[i+1]
		if IsStopWord(a) || IsStopWord(b) {
			continue
		}
		if utf8.RuneCountInString(a)+utf8.RuneCountInString(b) < minBigramLen {
			continue
		}
		seen[a+" "+b] = struct{}{}
	}

	if len(seen) == 0 {
		return nil
	}

	keywords := make([]string, 0, len(seen))
	for k := range seen {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	return keywords
}

// tokenize lower-cases and splits a description, keeping only letters,
// digits and hyphens inside tokens.
func tokenize(description string) []string {
	lower := strings.ToLower(description)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Fields(b.String())
}
