package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
)

// Engine answers search requests from the HTTP and CLI surfaces.
type Engine struct {
	ranker *Ranker
	config *config.SearchConfig
	logger *zap.Logger
}

// NewEngine creates a search engine over ranker. cfg supplies limits and the default
// keyword weight.
func NewEngine(ranker *Ranker, cfg *config.SearchConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{ranker: ranker, config: cfg, logger: logger}
}

// Search validates query, applying configured defaults, and runs the ranker.
// Only validation errors are returned; ranking failures yield an empty response.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(e.config.DefaultLimit, e.config.MaxLimit, e.config.KeywordWeightOrDefault()); err != nil {
		return nil, err
	}

	results := e.ranker.SemanticSearch(ctx, query.Query, query.Limit, query.Weight())
	e.logger.Debug("search",
		zap.String("query", query.Query),
		zap.Int("limit", query.Limit),
		zap.Float64("keyword_weight", query.Weight()),
		zap.Int("results", len(results)),
	)
	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(startTime).Milliseconds(),
		Query:     query.Query,
	}, nil
}
