package search

import (
	"strings"
	"unicode/utf16"
)

// minKeywordLength is the shortest query token that counts as a keyword.
const minKeywordLength = 3

// ExtractKeywords lowercases query, splits it on whitespace and drops tokens
// shorter than three UTF-16 code units, the same units the hash embedder counts.
// Duplicates are kept.
func ExtractKeywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(utf16.Encode([]rune(f))) >= minKeywordLength {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

// KeywordMatchScore sums matches/len(keywords) over every keyword that occurs in
// haystack at least once, counting non-overlapping case-insensitive occurrences.
// The result is clamped to [0, 1].
func KeywordMatchScore(haystack string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	haystack = strings.ToLower(haystack)
	var score float64
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if matches := strings.Count(haystack, kw); matches > 0 {
			score += float64(matches) / float64(len(keywords))
		}
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
