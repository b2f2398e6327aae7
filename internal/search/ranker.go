// Package search ranks notes by blending embedding similarity with keyword matches.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
)

const (
	// DefaultLimit is the number of results returned when limit is not positive.
	DefaultLimit = 5
	// DefaultCandidateMultiplier is how many semantic candidates are fetched per result.
	DefaultCandidateMultiplier = 2
)

// Ranker runs hybrid search over an embedding index.
type Ranker struct {
	embedder            embedding.Embedder
	index               vector.Index
	candidateMultiplier int
	logger              *zap.Logger
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithLogger sets the logger. If nil, a no-op logger is used.
func WithLogger(logger *zap.Logger) RankerOption {
	return func(r *Ranker) {
		r.logger = logger
	}
}

// WithCandidateMultiplier sets how many candidates are fetched per requested result.
// Values below 1 are ignored.
func WithCandidateMultiplier(n int) RankerOption {
	return func(r *Ranker) {
		if n >= 1 {
			r.candidateMultiplier = n
		}
	}
}

// NewRanker creates a ranker over index, embedding queries with embedder.
func NewRanker(embedder embedding.Embedder, index vector.Index, opts ...RankerOption) *Ranker {
	r := &Ranker{
		embedder:            embedder,
		index:               index,
		candidateMultiplier: DefaultCandidateMultiplier,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Search embeds query, fetches limit*multiplier semantic candidates and, when
// keywordWeight > 0 and the query has keywords, blends keyword match scores in before
// truncating to limit. Errors from the embedder or the index are returned.
func (r *Ranker) Search(ctx context.Context, query string, limit int, keywordWeight float64) ([]*models.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	hits, err := r.index.Search(ctx, queryVector, limit*r.candidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	candidates := make([]*models.SearchResult, 0, len(hits))
	for _, h := range hits {
		candidates = append(candidates, &models.SearchResult{
			NoteID:    h.ID,
			Title:     h.Metadata.Title,
			Content:   h.Metadata.Content,
			CreatedAt: h.Metadata.CreatedAt,
			UpdatedAt: h.Metadata.UpdatedAt,
			Score:     h.Score,
		})
	}

	if keywordWeight > 0 {
		if keywords := ExtractKeywords(query); len(keywords) > 0 {
			fuseKeywordScores(candidates, keywords, keywordWeight)
		}
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for i, c := range candidates {
		c.Rank = i + 1
	}
	return candidates, nil
}

// SemanticSearch is Search that never fails: any error or panic is logged and an
// empty result list is returned.
func (r *Ranker) SemanticSearch(ctx context.Context, query string, limit int, keywordWeight float64) (results []*models.SearchResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("semantic search panicked", zap.String("query", query), zap.Any("panic", p))
			results = []*models.SearchResult{}
		}
	}()
	results, err := r.Search(ctx, query, limit, keywordWeight)
	if err != nil {
		r.logger.Error("semantic search failed", zap.String("query", query), zap.Error(err))
		return []*models.SearchResult{}
	}
	return results
}
