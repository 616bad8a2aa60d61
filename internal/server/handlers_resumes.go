package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/llm"
	"github.com/jonathan/proposal-agent/internal/prompts"
	"github.com/jonathan/proposal-agent/internal/server/middleware"
	"github.com/jonathan/proposal-agent/internal/types"
)

// embedInputLimit caps what is sent to the embedding model on chunk
// creation; the full content is stored regardless.
const embedInputLimit = 9000

// CreateChunkRequest is the resume chunk upload payload.
type CreateChunkRequest struct {
	Content  string          `json:"content" validate:"required"`
	Domain   *string         `json:"domain,omitempty"`
	Role     string          `json:"role" validate:"required,min=1,max=100"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// GenerateChunkRequest asks the model to write resume content from a
// short background description.
type GenerateChunkRequest struct {
	Role        string  `json:"role" validate:"required,min=1,max=100"`
	Description string  `json:"description" validate:"required"`
	Domain      *string `json:"domain,omitempty"`
}

// UpdateChunkRequest carries the editable chunk fields.
type UpdateChunkRequest struct {
	Domain *string `json:"domain,omitempty"`
	Role   string  `json:"role" validate:"required,min=1,max=100"`
}

// handleCreateChunk embeds and stores a resume chunk.
func (s *Server) handleCreateChunk(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authedUser(w, r)
	if !ok {
		return
	}

	var req CreateChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}
	if req.Domain != nil && !types.ValidDomain(*req.Domain) {
		http.Error(w, "unknown domain", http.StatusBadRequest)
		return
	}

	// Non-admin users with a configured domain can only index into it.
	domain := req.Domain
	if !user.IsSuperAdmin() && user.Domain != nil {
		domain = user.Domain
	}

	embedding, err := s.embedder.GenerateEmbedding(r.Context(),
		llm.TruncateForEmbedding(req.Content, embedInputLimit))
	if err != nil {
		s.log.Error("failed to embed resume chunk", zap.Error(err))
		http.Error(w, "Failed to embed content", http.StatusBadGateway)
		return
	}

	chunk, err := s.chunks.CreateResumeChunk(r.Context(), db.ResumeChunkCreateInput{
		UserID:    user.ID,
		Domain:    domain,
		Role:      req.Role,
		Content:   req.Content,
		Embedding: embedding,
		Metadata:  req.Metadata,
	})
	if err != nil {
		s.log.Error("failed to create resume chunk", zap.Error(err))
		http.Error(w, "Failed to store chunk", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, chunk)
}

// handleGenerateChunk has the model write resume content for a role
// from the caller's description, then stores it through the same
// embed-and-store path as an upload. The description is kept in the
// chunk metadata.
func (s *Server) handleGenerateChunk(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authedUser(w, r)
	if !ok {
		return
	}

	var req GenerateChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}
	if req.Domain != nil && !types.ValidDomain(*req.Domain) {
		http.Error(w, "unknown domain", http.StatusBadRequest)
		return
	}

	// Non-admin users with a configured domain can only generate into it.
	domain := req.Domain
	if !user.IsSuperAdmin() && user.Domain != nil {
		domain = user.Domain
	}
	domainLabel := "General"
	if domain != nil {
		domainLabel = *domain
	}

	template := prompts.MustGet("resume.json", "generate")
	prompt := prompts.Format(template, map[string]string{
		"Role":        req.Role,
		"Domain":      domainLabel,
		"Description": req.Description,
	})

	content, err := s.generator.GenerateContent(r.Context(), prompt, llm.TierAdvanced)
	if err != nil {
		s.log.Error("failed to generate resume content", zap.Error(err))
		http.Error(w, "Failed to generate resume", http.StatusBadGateway)
		return
	}

	embedding, err := s.embedder.GenerateEmbedding(r.Context(),
		llm.TruncateForEmbedding(content, embedInputLimit))
	if err != nil {
		s.log.Error("failed to embed generated resume", zap.Error(err))
		http.Error(w, "Failed to embed content", http.StatusBadGateway)
		return
	}

	metadata, _ := json.Marshal(map[string]string{"description": req.Description})

	chunk, err := s.chunks.CreateResumeChunk(r.Context(), db.ResumeChunkCreateInput{
		UserID:    user.ID,
		Domain:    domain,
		Role:      req.Role,
		Content:   content,
		Embedding: embedding,
		Metadata:  metadata,
	})
	if err != nil {
		s.log.Error("failed to store generated resume", zap.Error(err))
		http.Error(w, "Failed to store chunk", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, chunk)
}

// handleListChunks returns the chunks visible to the caller.
func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authedUser(w, r)
	if !ok {
		return
	}

	chunks, err := s.chunks.ListResumeChunks(r.Context(), user.ID, user.Domain)
	if err != nil {
		s.log.Error("failed to list resume chunks", zap.Error(err))
		http.Error(w, "Failed to list chunks", http.StatusInternalServerError)
		return
	}
	if chunks == nil {
		chunks = []*db.ResumeChunk{}
	}
	writeJSON(w, http.StatusOK, chunks)
}

// handleGetChunk returns a single chunk.
func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	_, chunk, ok := s.loadOwnedChunk(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, chunk)
}

// handleUpdateChunk edits a chunk's domain tag and role label.
func (s *Server) handleUpdateChunk(w http.ResponseWriter, r *http.Request) {
	_, chunk, ok := s.loadOwnedChunk(w, r)
	if !ok {
		return
	}

	var req UpdateChunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}
	if req.Domain != nil && !types.ValidDomain(*req.Domain) {
		http.Error(w, "unknown domain", http.StatusBadRequest)
		return
	}

	updated, err := s.chunks.UpdateResumeChunk(r.Context(), chunk.ID, req.Domain, req.Role)
	if err != nil {
		s.log.Error("failed to update resume chunk", zap.Error(err))
		http.Error(w, "Failed to update chunk", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteChunk removes a chunk.
func (s *Server) handleDeleteChunk(w http.ResponseWriter, r *http.Request) {
	_, chunk, ok := s.loadOwnedChunk(w, r)
	if !ok {
		return
	}

	deleted, err := s.chunks.DeleteResumeChunk(r.Context(), chunk.ID)
	if err != nil {
		s.log.Error("failed to delete resume chunk", zap.Error(err))
		http.Error(w, "Failed to delete chunk", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, "Chunk not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authedUser loads the full account for the authenticated caller.
func (s *Server) authedUser(w http.ResponseWriter, r *http.Request) (*db.User, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	user, err := s.users.GetUserByID(r.Context(), userID)
	if err != nil || user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

// loadOwnedChunk parses {id} and enforces chunk ownership; superadmins
// may manage any chunk.
func (s *Server) loadOwnedChunk(w http.ResponseWriter, r *http.Request) (*db.User, *db.ResumeChunk, bool) {
	user, ok := s.authedUser(w, r)
	if !ok {
		return nil, nil, false
	}

	chunkID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid chunk id", http.StatusBadRequest)
		return nil, nil, false
	}

	chunk, err := s.chunks.GetResumeChunk(r.Context(), chunkID)
	if err != nil {
		s.log.Error("failed to load resume chunk", zap.Error(err))
		http.Error(w, "Failed to load chunk", http.StatusInternalServerError)
		return nil, nil, false
	}
	if chunk == nil || (chunk.UserID != user.ID && !user.IsSuperAdmin()) {
		http.Error(w, "Chunk not found", http.StatusNotFound)
		return nil, nil, false
	}
	return user, chunk, true
}
