package models

import "time"

// SearchResult is a single search hit. Note fields are copied from the index snapshot
// taken when the note was last indexed.
type SearchResult struct {
	NoteID    string    `json:"note_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Score     float64   `json:"score"`
	// KeywordMatchScore is set only when keyword blending was applied.
	KeywordMatchScore *float64 `json:"keyword_match_score,omitempty"`
	Rank              int      `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}
