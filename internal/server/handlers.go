package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/notes"
	"github.com/hyperjump/kioku/internal/storage"
)

const defaultListLimit = 50

// NoteList is the response for GET /api/v1/notes.
type NoteList struct {
	Notes  []*models.Note `json:"notes"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

// Status is the response for GET /api/v1/status.
type Status struct {
	Notes             int64    `json:"notes"`
	VectorIndexSize   int      `json:"vector_index_size"`
	VectorIndexType   string   `json:"vector_index_type"`
	EmbeddingProvider string   `json:"embedding_provider"`
	Dimensions        int      `json:"embedding_dimensions"`
	DiskUsageBytes    int64    `json:"disk_usage_bytes"`
	WatchDirectories  []string `json:"watch_directories,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var input models.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	note, err := s.notes.Create(r.Context(), &input)
	if err != nil {
		s.respondNoteError(w, err)
		return
	}
	s.logger.Debug("note created", zap.String("id", note.ID))
	s.respondJSON(w, http.StatusCreated, note)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := intParam(q.Get("limit"), defaultListLimit)
	if err != nil || limit < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	list, total, err := s.notes.List(r.Context(), q.Get("q"), offset, limit)
	if err != nil {
		s.logger.Error("list notes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, &NoteList{Notes: list, Total: total, Offset: offset, Limit: limit})
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := s.notes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondNoteError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, note)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var input models.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	note, err := s.notes.Update(r.Context(), chi.URLParam(r, "id"), &input)
	if err != nil {
		s.respondNoteError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.notes.Delete(r.Context(), id); err != nil {
		s.respondNoteError(w, err)
		return
	}
	s.logger.Debug("note deleted", zap.String("id", id))
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	report, err := s.notes.Rebuild(r.Context())
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.notes.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count notes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := &Status{
		Notes:             count,
		VectorIndexSize:   s.vectors.Size(),
		VectorIndexType:   s.vectors.Type(),
		EmbeddingProvider: s.provider,
		Dimensions:        s.vectors.Dimensions(),
	}
	diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.BleveIndexPath)
	if err != nil {
		s.logger.Warn("status: disk usage failed", zap.Error(err))
	}
	status.DiskUsageBytes = diskBytes
	if s.watch != nil {
		status.WatchDirectories = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondNoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNoteNotFound):
		s.respondError(w, http.StatusNotFound, "note not found")
	case errors.Is(err, notes.ErrInvalidNote):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("note operation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
