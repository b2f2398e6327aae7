package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"drops short tokens", "The Budget  is UP for q3 planning", []string{"the", "budget", "for", "planning"}},
		{"keeps duplicates", "budget Budget", []string{"budget", "budget"}},
		{"all short", "a an to", []string{}},
		{"empty", "", []string{}},
		{"tabs and newlines", "alpha\tbeta\ngamma", []string{"alpha", "beta", "gamma"}},
		{"counts characters not bytes", "日本語 日本", []string{"日本語"}},
		{"surrogate pairs count as two units", "😀x 😀 ab", []string{"😀x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.query))
		})
	}
}

func TestKeywordMatchScore(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		keywords []string
		want     float64
	}{
		{"no keywords", "anything", nil, 0},
		{"no match", "unrelated filler text", []string{"budget"}, 0},
		{"partial keyword set", "alpha beta", []string{"alpha", "gamma", "delta", "beta"}, 0.5},
		{"case insensitive", "BUDGET Plan", []string{"budget", "plan", "xyz", "qqq"}, 0.5},
		{"non-overlapping occurrences", "aaaaaa", []string{"aaa", "bbb", "ccc", "ddd"}, 0.5},
		{"literal not pattern", "a.c abc", []string{"a.c", "zzz"}, 0.5},
		{"clamped at one", strings.Repeat("budget ", 50), []string{"budget"}, 1},
		{"sum clamped at one", "cat cat mat", []string{"cat", "mat"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, KeywordMatchScore(tt.haystack, tt.keywords), 1e-12)
		})
	}
}

func TestBlend(t *testing.T) {
	assert.InDelta(t, 0.8, Blend(0.8, 0.1, 0), 1e-12)
	assert.InDelta(t, 0.1, Blend(0.8, 0.1, 1), 1e-12)
	assert.InDelta(t, 0.7*0.5+0.3*1.0, Blend(0.5, 1, 0.3), 1e-12)
}
