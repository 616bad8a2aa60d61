package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/db"
)

// ChatRequest carries a free-form question, typically a pasted job
// description.
type ChatRequest struct {
	Question string `json:"question" validate:"required"`
}

// handleChat answers a question against the caller's resume material
// and records the exchange in history.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authedUser(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}

	entry, err := s.proposals.Answer(r.Context(), user, req.Question)
	if err != nil {
		s.log.Error("chat answer failed", zap.Error(err))
		http.Error(w, "Failed to answer question", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// handleListHistory returns the caller's past exchanges, newest first.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authedUser(w, r)
	if !ok {
		return
	}

	entries, err := s.history.ListHistoryByUser(r.Context(), user.ID)
	if err != nil {
		s.log.Error("failed to list history", zap.Error(err))
		http.Error(w, "Failed to list history", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []db.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetHistory returns a single entry.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	_, entry, ok := s.loadOwnedHistory(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleDeleteHistory removes an entry.
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	_, entry, ok := s.loadOwnedHistory(w, r)
	if !ok {
		return
	}

	deleted, err := s.history.DeleteHistoryEntry(r.Context(), entry.ID)
	if err != nil {
		s.log.Error("failed to delete history entry", zap.Error(err))
		http.Error(w, "Failed to delete entry", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadOwnedHistory parses {id} and enforces entry ownership;
// superadmins may manage any entry.
func (s *Server) loadOwnedHistory(w http.ResponseWriter, r *http.Request) (*db.User, *db.HistoryEntry, bool) {
	user, ok := s.authedUser(w, r)
	if !ok {
		return nil, nil, false
	}

	entryID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid entry id", http.StatusBadRequest)
		return nil, nil, false
	}

	entry, err := s.history.GetHistoryEntry(r.Context(), entryID)
	if err != nil {
		s.log.Error("failed to load history entry", zap.Error(err))
		http.Error(w, "Failed to load entry", http.StatusInternalServerError)
		return nil, nil, false
	}
	if entry == nil || (entry.UserID != user.ID && !user.IsSuperAdmin()) {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return nil, nil, false
	}
	return user, entry, true
}
