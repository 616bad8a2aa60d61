package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-agent/internal/db"
)

func TestHandleCreateJob(t *testing.T) {
	f := newTestServer(t)
	user := f.users.add(db.RoleUser, nil)

	req := authedRequest(http.MethodPost, "/jobs", map[string]string{
		"title":        "Backend contract",
		"inputType":    "TEXT",
		"inputContent": "We need a Go developer for a payments API.",
	}, user.ID)
	w := httptest.NewRecorder()
	f.server.handleCreateJob(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, db.StatusQueued, resp["status"])

	jobID, err := uuid.Parse(resp["id"])
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{jobID}, f.runner.enqueued)
	assert.Equal(t, user.ID, f.jobs.jobs[jobID].UserID)
}

func TestHandleCreateJob_QueueFullStillAccepted(t *testing.T) {
	f := newTestServer(t)
	f.runner.full = true
	user := f.users.add(db.RoleUser, nil)

	req := authedRequest(http.MethodPost, "/jobs", map[string]string{
		"title":        "Backend contract",
		"inputType":    "TEXT",
		"inputContent": "posting text",
	}, user.ID)
	w := httptest.NewRecorder()
	f.server.handleCreateJob(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandleCreateJob_Validation(t *testing.T) {
	f := newTestServer(t)
	user := f.users.add(db.RoleUser, nil)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing title", map[string]string{"inputType": "TEXT", "inputContent": "x"}},
		{"missing content", map[string]string{"title": "t", "inputType": "TEXT"}},
		{"missing type", map[string]string{"title": "t", "inputContent": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedRequest(http.MethodPost, "/jobs", tt.body, user.ID)
			w := httptest.NewRecorder()
			f.server.handleCreateJob(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "validation error")
		})
	}
}

func TestHandleCreateJob_UnknownInputType(t *testing.T) {
	f := newTestServer(t)
	user := f.users.add(db.RoleUser, nil)

	req := authedRequest(http.MethodPost, "/jobs", map[string]string{
		"title":        "t",
		"inputType":    "PDF",
		"inputContent": "x",
	}, user.ID)
	w := httptest.NewRecorder()
	f.server.handleCreateJob(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.runner.enqueued)
}

func TestHandleGetJob(t *testing.T) {
	f := newTestServer(t)
	user := f.users.add(db.RoleUser, nil)
	job, err := f.jobs.CreateJob(t.Context(), &db.JobCreateInput{
		UserID: user.ID, Title: "t", InputType: "TEXT", InputContent: "x",
	})
	require.NoError(t, err)

	req := authedRequest(http.MethodGet, "/jobs/"+job.ID.String(), nil, user.ID)
	req.SetPathValue("id", job.ID.String())
	w := httptest.NewRecorder()
	f.server.handleGetJob(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var detail JobDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, job.ID, detail.Job.ID)
	assert.Nil(t, detail.Analysis, "analysis is null until the pipeline writes one")
}

func TestHandleGetJob_ForeignJobHidden(t *testing.T) {
	f := newTestServer(t)
	owner := f.users.add(db.RoleUser, nil)
	other := f.users.add(db.RoleUser, nil)
	job, err := f.jobs.CreateJob(t.Context(), &db.JobCreateInput{
		UserID: owner.ID, Title: "t", InputType: "TEXT", InputContent: "x",
	})
	require.NoError(t, err)

	req := authedRequest(http.MethodGet, "/jobs/"+job.ID.String(), nil, other.ID)
	req.SetPathValue("id", job.ID.String())
	w := httptest.NewRecorder()
	f.server.handleGetJob(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetJob_SuperadminSeesAll(t *testing.T) {
	f := newTestServer(t)
	owner := f.users.add(db.RoleUser, nil)
	admin := f.users.add(db.RoleSuperAdmin, nil)
	job, err := f.jobs.CreateJob(t.Context(), &db.JobCreateInput{
		UserID: owner.ID, Title: "t", InputType: "TEXT", InputContent: "x",
	})
	require.NoError(t, err)

	req := authedRequest(http.MethodGet, "/jobs/"+job.ID.String(), nil, admin.ID)
	req.SetPathValue("id", job.ID.String())
	w := httptest.NewRecorder()
	f.server.handleGetJob(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleGetJob_InvalidID(t *testing.T) {
	f := newTestServer(t)
	user := f.users.add(db.RoleUser, nil)

	req := authedRequest(http.MethodGet, "/jobs/not-a-uuid", nil, user.ID)
	req.SetPathValue("id", "not-a-uuid")
	w := httptest.NewRecorder()
	f.server.handleGetJob(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListJobs_EmptyIsArray(t *testing.T) {
	f := newTestServer(t)
	user := f.users.add(db.RoleUser, nil)

	req := authedRequest(http.MethodGet, "/jobs", nil, user.ID)
	w := httptest.NewRecorder()
	f.server.handleListJobs(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestHandleListJobs_BadLimit(t *testing.T) {
	f := newTestServer(t)
	user := f.users.add(db.RoleUser, nil)

	req := authedRequest(http.MethodGet, "/jobs?limit=abc", nil, user.ID)
	w := httptest.NewRecorder()
	f.server.handleListJobs(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListJobStages(t *testing.T) {
	f := newTestServer(t)
	user := f.users.add(db.RoleUser, nil)
	job, err := f.jobs.CreateJob(t.Context(), &db.JobCreateInput{
		UserID: user.ID, Title: "t", InputType: "TEXT", InputContent: "x",
	})
	require.NoError(t, err)
	f.jobs.stages[job.ID] = []db.JobStage{
		{ID: uuid.New(), JobID: job.ID, Stage: db.StagePersona, Output: []byte(`{}`)},
		{ID: uuid.New(), JobID: job.ID, Stage: db.StageRouting, Output: []byte(`{}`)},
	}

	req := authedRequest(http.MethodGet, "/jobs/"+job.ID.String()+"/stages", nil, user.ID)
	req.SetPathValue("id", job.ID.String())
	w := httptest.NewRecorder()
	f.server.handleListJobStages(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stages []db.JobStage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stages))
	assert.Len(t, stages, 2)
}
