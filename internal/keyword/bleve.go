package keyword

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/kioku/internal/models"
)

// ErrIndexUnavailable is returned after a failed Reset left no open index. A later
// successful Reset makes the index usable again.
var ErrIndexUnavailable = errors.New("full-text index unavailable")

// openIndex opens or creates the Bleve index at a path.
var openIndex = openOrCreate

// noteDocument is what gets stored in Bleve for a note.
type noteDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BleveIndex implements KeywordIndex using Bleve.
type BleveIndex struct {
	path  string
	mu    sync.RWMutex
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path creates an
// in-memory index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	index, err := openIndex(path)
	if err != nil {
		return nil, err
	}
	return &BleveIndex{path: path, index: index}, nil
}

func newIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer lowercases and tokenizes without stemming, so terms match as written.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	im.AddDocumentMapping("note", docMapping)
	im.DefaultType = "note"
	im.DefaultMapping = docMapping
	return im
}

func openOrCreate(path string) (bleve.Index, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return index, nil
	}
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return index, nil
	}
	index, err := bleve.New(path, newIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return index, nil
}

// Index indexes a note's title and content under its ID, replacing any previous version.
func (b *BleveIndex) Index(ctx context.Context, note *models.Note) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return ErrIndexUnavailable
	}
	return b.index.Index(note.ID, noteDocument{Title: note.Title, Content: note.Content})
}

// Search runs a match query over title and content and returns up to limit results
// ordered by score.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*KeywordResult, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	fuzziness := 2
	if opts.Fuzziness > 0 {
		fuzziness = opts.Fuzziness
	}

	queries := []blevequery.Query{
		fieldQuery(query, "title", opts, fuzziness),
		fieldQuery(query, "content", opts, fuzziness),
	}
	if opts.Prefix {
		for _, term := range tokenizeQuery(query) {
			for _, field := range []string{"title", "content"} {
				pq := bleve.NewPrefixQuery(term)
				pq.SetField(field)
				queries = append(queries, pq)
			}
		}
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Size = limit

	b.mu.RLock()
	if b.index == nil {
		b.mu.RUnlock()
		return nil, ErrIndexUnavailable
	}
	results, err := b.index.SearchInContext(ctx, req)
	b.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*KeywordResult, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &KeywordResult{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// fieldQuery builds a match (or fuzzy) query for one field, boosted when the field is
// the title and opts.TitleBoost > 1.
func fieldQuery(query, field string, opts *SearchOptions, fuzziness int) blevequery.Query {
	boost := 1.0
	if field == "title" && opts.TitleBoost > 1 {
		boost = opts.TitleBoost
	}
	if opts.FuzzyEnabled {
		return buildFuzzyQuery(query, fuzziness, field, boost)
	}
	mq := bleve.NewMatchQuery(query)
	mq.SetField(field)
	mq.SetBoost(boost)
	return mq
}

// tokenizeQuery splits query into lowercase terms.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries for each term in the query.
func buildFuzzyQuery(queryStr string, fuzziness int, field string, boost float64) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField(field)
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		fq.SetBoost(boost)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes a note from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return ErrIndexUnavailable
	}
	return b.index.Delete(id)
}

// Reset drops the index and creates an empty one in its place. If any step fails the
// old index is already closed, so the field is cleared and every call returns
// ErrIndexUnavailable until a later Reset succeeds.
func (b *BleveIndex) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index != nil {
		err := b.index.Close()
		b.index = nil
		if err != nil {
			return fmt.Errorf("failed to close Bleve index: %w", err)
		}
	}
	if b.path != "" {
		if err := os.RemoveAll(b.path); err != nil {
			return fmt.Errorf("failed to remove Bleve index: %w", err)
		}
	}
	index, err := openIndex(b.path)
	if err != nil {
		return err
	}
	b.index = index
	return nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == nil {
		return nil
	}
	err := b.index.Close()
	b.index = nil
	return err
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return 0, ErrIndexUnavailable
	}
	return b.index.DocCount()
}
