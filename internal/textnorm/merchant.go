package textnorm

import (
	"regexp"
	"strings"
)

const minMerchantLen = 3

// Merchant-name heuristics tuned for Spanish and English expense
// phrasings: "tacos en El Fogón", "lunch at Starbucks", "Amazon compra".
var merchantPatterns = []*regexp.Regexp{
	// Preposition followed by a capitalized phrase.
	regexp.MustCompile(`(?:\b(?:en|de|del|con|at|from|in|on)\s+)(\p{Lu}[\p{L}\p{N}'&.-]*(?:\s+\p{Lu}[\p{L}\p{N}'&.-]*)*)`),
	// Bare capitalized phrase.
	regexp.MustCompile(`(\p{Lu}[\p{L}\p{N}'&.-]*(?:\s+\p{Lu}[\p{L}\p{N}'&.-]*)*)`),
}

var allDigits = regexp.MustCompile(`^[\p{N}.,-]+$`)

// ExtractMerchant returns the first plausible merchant name found in a
// description, or the empty string. Candidates shorter than three
// characters or purely numeric are rejected. Used during reinforcement
// only; matching never depends on it.
func ExtractMerchant(description string) string {
	for _, pattern := range merchantPatterns {
		matches := pattern.FindAllStringSubmatch(description, -1)
		for _, m := range matches {
			candidate := strings.TrimSpace(m[1])
			if len(candidate) < minMerchantLen {
				continue
			}
			if allDigits.MatchString(candidate) {
				continue
			}
			return candidate
		}
	}
	return ""
}
