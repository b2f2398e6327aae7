package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/server"
)

func sampleResponse() *models.SearchResponse {
	kw := 1.0
	return &models.SearchResponse{
		Query:     "budget",
		QueryTime: 42,
		Total:     2,
		Results: []*models.SearchResult{
			{
				NoteID:            "note-1",
				Title:             "Budget Plan",
				Content:           "Q3 budget\n\nplanning   details",
				CreatedAt:         time.Now(),
				UpdatedAt:         time.Now(),
				Score:             0.7665,
				KeywordMatchScore: &kw,
				Rank:              1,
			},
			{
				NoteID: "note-2",
				Title:  "Team Offsite",
				Score:  0.6746,
				Rank:   2,
			},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"text", "compact", "json"} {
		f, err := ParseOutputFormat(s)
		if err != nil || string(f) != s {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	response := sampleResponse()
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "budget" || decoded.QueryTime != 42 || decoded.Total != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].NoteID != "note-1" {
		t.Fatalf("decoded results = %+v", decoded.Results)
	}
	if decoded.Results[0].KeywordMatchScore == nil || decoded.Results[1].KeywordMatchScore != nil {
		t.Error("keyword_match_score should round-trip only where set")
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{
		"Found 2 results", `"budget"`, "42ms", "Rank: 1", "Keyword match: 1.0000",
		"ID: note-1", "Budget Plan", "Q3 budget planning details", "Rank: 2", "Team Offsite",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSearchResults_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "1\t0.7665\tnote-1\tBudget Plan Q3 budget") {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestWriteSearchResults_unknownFormatTreatedAsText(t *testing.T) {
	response := &models.SearchResponse{Query: "x"}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputFormat("unknown")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Found 0 results") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	status := &server.Status{
		Notes:             3,
		VectorIndexSize:   3,
		VectorIndexType:   "memory",
		EmbeddingProvider: "hash",
		Dimensions:        128,
		DiskUsageBytes:    4096,
		WatchDirectories:  []string{"/notes"},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"notes:              3", "memory", "hash (128 dimensions)", "4096", "/notes"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("status output missing %q:\n%s", sub, buf.String())
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, status, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded server.Status
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Notes != 3 || decoded.EmbeddingProvider != "hash" {
		t.Errorf("decoded status = %+v", decoded)
	}
}

func TestWriteNotes(t *testing.T) {
	notes := []*models.Note{{ID: "a", Title: "Alpha", Content: "one two"}}
	var buf bytes.Buffer
	if err := WriteNotes(&buf, notes, OutputText); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "a\tAlpha\tone two\n" {
		t.Errorf("WriteNotes() = %q", buf.String())
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
		{"single long", "word", 1, "word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}

func TestPrintSearchResults(t *testing.T) {
	response := &models.SearchResponse{Query: "print test", QueryTime: 1}
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
		_ = w.Close()
	}()
	PrintSearchResults(response)
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	if !strings.Contains(buf.String(), "Found 0 results") {
		t.Errorf("PrintSearchResults should write to stdout; got %q", buf.String())
	}
}
