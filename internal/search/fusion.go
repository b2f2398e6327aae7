package search

import (
	"sort"

	"github.com/hyperjump/kioku/internal/models"
)

// Blend combines a semantic and a keyword score:
// (1 - keywordWeight) * semantic + keywordWeight * keyword.
func Blend(semantic, keyword, keywordWeight float64) float64 {
	return (1-keywordWeight)*semantic + keywordWeight*keyword
}

// fuseKeywordScores rescores candidates in place against keywords and re-sorts them by
// the blended score. Candidates with equal blended scores keep their semantic order.
func fuseKeywordScores(candidates []*models.SearchResult, keywords []string, keywordWeight float64) {
	for _, c := range candidates {
		kw := KeywordMatchScore(c.Title+" "+c.Content, keywords)
		c.KeywordMatchScore = &kw
		c.Score = Blend(c.Score, kw, keywordWeight)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
