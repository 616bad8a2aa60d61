package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/proposal"
)

func TestHandleSynthesizeProposal(t *testing.T) {
	f := newTestServer(t)
	f.props.text = "Hi,\n\nI can build this.\n\nBest regards,"
	user := f.users.add(db.RoleUser, nil)
	jobID := uuid.New()

	req := authedRequest(http.MethodPost, "/jobs/"+jobID.String()+"/proposal", nil, user.ID)
	req.SetPathValue("id", jobID.String())
	w := httptest.NewRecorder()
	f.server.handleSynthesizeProposal(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, f.props.text, resp["proposal"])
}

func TestHandleSynthesizeProposal_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"job not found", proposal.ErrJobNotFound, http.StatusNotFound, "job not found"},
		{"analysis missing", proposal.ErrAnalysisMissing, http.StatusBadRequest, "analysis not found"},
		{"not ready", proposal.ErrJobNotReady, http.StatusBadRequest, "has not completed"},
		{"internal", errors.New("model exploded"), http.StatusInternalServerError, "Proposal generation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestServer(t)
			f.props.synthErr = tt.err
			user := f.users.add(db.RoleUser, nil)
			jobID := uuid.New()

			req := authedRequest(http.MethodPost, "/jobs/"+jobID.String()+"/proposal", nil, user.ID)
			req.SetPathValue("id", jobID.String())
			w := httptest.NewRecorder()
			f.server.handleSynthesizeProposal(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestHandleSynthesizeProposal_InternalErrorIsOpaque(t *testing.T) {
	f := newTestServer(t)
	f.props.synthErr = errors.New("pq: connection refused to 10.1.2.3")
	user := f.users.add(db.RoleUser, nil)
	jobID := uuid.New()

	req := authedRequest(http.MethodPost, "/jobs/"+jobID.String()+"/proposal", nil, user.ID)
	req.SetPathValue("id", jobID.String())
	w := httptest.NewRecorder()
	f.server.handleSynthesizeProposal(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.1.2.3")
}

func TestHandleCritiqueProposal(t *testing.T) {
	f := newTestServer(t)
	f.props.critique = &proposal.CritiqueResult{
		Original: "Hi,\n\noriginal\n\nBest regards,",
		Refined:  "Hi,\n\nrefined\n\nBest regards,",
	}
	user := f.users.add(db.RoleUser, nil)
	jobID := uuid.New()

	req := authedRequest(http.MethodPost, "/jobs/"+jobID.String()+"/critique", nil, user.ID)
	req.SetPathValue("id", jobID.String())
	w := httptest.NewRecorder()
	f.server.handleCritiqueProposal(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result proposal.CritiqueResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Contains(t, result.Original, "original")
	assert.Contains(t, result.Refined, "refined")
}

func TestHandleCritiqueProposal_RequiresProposal(t *testing.T) {
	f := newTestServer(t)
	f.props.critiqueErr = proposal.ErrProposalMissing
	user := f.users.add(db.RoleUser, nil)
	jobID := uuid.New()

	req := authedRequest(http.MethodPost, "/jobs/"+jobID.String()+"/critique", nil, user.ID)
	req.SetPathValue("id", jobID.String())
	w := httptest.NewRecorder()
	f.server.handleCritiqueProposal(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleProposal_InvalidJobID(t *testing.T) {
	f := newTestServer(t)
	user := f.users.add(db.RoleUser, nil)

	req := authedRequest(http.MethodPost, "/jobs/nope/proposal", nil, user.ID)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()
	f.server.handleSynthesizeProposal(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
