package server

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/server/middleware"
)

// handleSynthesizeProposal triggers proposal generation for a
// completed job. Idempotent: an already-persisted proposal is returned
// without another model call.
func (s *Server) handleSynthesizeProposal(w http.ResponseWriter, r *http.Request) {
	userID, jobID, ok := authedJobID(w, r)
	if !ok {
		return
	}

	text, err := s.proposals.Synthesize(r.Context(), jobID, userID)
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusInternalServerError {
			s.log.Error("proposal synthesis failed",
				zap.String("jobId", jobID.String()), zap.Error(err))
			http.Error(w, "Proposal generation failed", status)
			return
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"proposal": text})
}

// handleCritiqueProposal runs the editorial refinement pass and
// returns both versions.
func (s *Server) handleCritiqueProposal(w http.ResponseWriter, r *http.Request) {
	userID, jobID, ok := authedJobID(w, r)
	if !ok {
		return
	}

	result, err := s.proposals.Critique(r.Context(), jobID, userID)
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusInternalServerError {
			s.log.Error("proposal critique failed",
				zap.String("jobId", jobID.String()), zap.Error(err))
			http.Error(w, "Proposal critique failed", status)
			return
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// authedJobID extracts the caller and the {id} path value.
func authedJobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid job id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, jobID, true
}
