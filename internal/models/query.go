package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned by Validate when the query text is blank.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery represents a search request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// KeywordWeight blends lexical keyword matches into the semantic score (0 = pure semantic,
	// 1 = pure keyword). Nil means use the configured default.
	KeywordWeight *float64 `json:"keyword_weight,omitempty"`
}

// Validate checks the query and applies defaults.
// Limit falls back to defaultLimit and is capped at maxLimit; KeywordWeight falls back to
// defaultWeight and is clamped to [0, 1].
func (q *SearchQuery) Validate(defaultLimit, maxLimit int, defaultWeight float64) error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrEmptyQuery
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	w := defaultWeight
	if q.KeywordWeight != nil {
		w = *q.KeywordWeight
	}
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	q.KeywordWeight = &w
	return nil
}

// Weight returns the keyword weight, or 0 when unset.
func (q *SearchQuery) Weight() float64 {
	if q.KeywordWeight == nil {
		return 0
	}
	return *q.KeywordWeight
}
