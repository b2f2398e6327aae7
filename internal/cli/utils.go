// Package cli provides output helpers for the kioku command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/server"
	"github.com/hyperjump/kioku/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const (
	previewLength        = 200
	compactPreviewLength = 80
)

// ParseOutputFormat returns the format named by s.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

// WriteSearchResults writes search results to w in the given format.
// Unknown formats are written as text.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", r.Rank, r.Score, r.NoteID,
				utils.Truncate(utils.CollapseWhitespace(r.Title+" "+r.Content), compactPreviewLength))
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
	for _, r := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		if r.KeywordMatchScore != nil {
			fmt.Fprintf(w, "Rank: %d | Score: %.4f (Keyword match: %.4f)\n", r.Rank, r.Score, *r.KeywordMatchScore)
		} else {
			fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", r.Rank, r.Score)
		}
		fmt.Fprintf(w, "ID: %s\n", r.NoteID)
		fmt.Fprintf(w, "Title: %s\n", r.Title)
		if r.Content != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(utils.CollapseWhitespace(r.Content), previewLength))
		}
		fmt.Fprintln(w)
	}
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}

// WriteStatus writes index status to w as text or JSON.
func WriteStatus(w io.Writer, status *server.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "notes:              %d   # stored notes\n", status.Notes)
	fmt.Fprintf(w, "vector_index_size:  %d   # notes with an embedding\n", status.VectorIndexSize)
	fmt.Fprintf(w, "vector_index_type:  %s\n", status.VectorIndexType)
	fmt.Fprintf(w, "embedding:          %s (%d dimensions)\n", status.EmbeddingProvider, status.Dimensions)
	fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + full-text index\n", status.DiskUsageBytes)
	if len(status.WatchDirectories) > 0 {
		fmt.Fprintf(w, "watch_directories:  %s\n", strings.Join(status.WatchDirectories, ", "))
	}
	return nil
}

// WriteNotes writes a list of notes to w, one per line in text mode.
func WriteNotes(w io.Writer, notes []*models.Note, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, notes)
	}
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, n.Title, TruncateWords(utils.CollapseWhitespace(n.Content), 12))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
