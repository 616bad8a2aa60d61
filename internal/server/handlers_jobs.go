package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/server/middleware"
)

// CreateJobRequest is the job submission payload.
type CreateJobRequest struct {
	Title        string `json:"title" validate:"required,min=1,max=200"`
	InputType    string `json:"inputType" validate:"required"`
	InputContent string `json:"inputContent" validate:"required"`
}

// JobDetail is the GET /jobs/{id} response: the job plus its analysis
// output, which stays null until the pipeline has produced one.
type JobDetail struct {
	Job      *db.Job            `json:"job"`
	Analysis *db.AnalysisOutput `json:"analysis"`
}

// handleCreateJob accepts a submission, persists it QUEUED, and
// schedules the background analysis run. The response returns before
// any analysis happens; callers poll GET /jobs/{id}.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}
	if !db.ValidInputType(req.InputType) {
		http.Error(w, "inputType must be one of URL, FILE, TEXT", http.StatusBadRequest)
		return
	}

	job, err := s.jobs.CreateJob(r.Context(), &db.JobCreateInput{
		UserID:       userID,
		Title:        req.Title,
		InputType:    req.InputType,
		InputContent: req.InputContent,
	})
	if err != nil {
		s.log.Error("failed to create job", zap.Error(err))
		http.Error(w, "Failed to create job", http.StatusInternalServerError)
		return
	}

	if !s.runner.Enqueue(job.ID) {
		s.log.Warn("job accepted but not scheduled, queue full",
			zap.String("jobId", job.ID.String()))
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":     job.ID.String(),
		"status": job.Status,
	})
}

// handleListJobs returns the caller's jobs, newest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
	}

	jobs, err := s.jobs.ListJobsByUser(r.Context(), userID, limit)
	if err != nil {
		s.log.Error("failed to list jobs", zap.Error(err))
		http.Error(w, "Failed to list jobs", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []db.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// handleGetJob returns a job and its analysis output (null until the
// pipeline has written one).
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	_, job, ok := s.loadOwnedJob(w, r)
	if !ok {
		return
	}

	analysis, err := s.jobs.GetAnalysisOutputByJob(r.Context(), job.ID)
	if err != nil {
		s.log.Error("failed to load analysis output", zap.Error(err))
		http.Error(w, "Failed to load analysis", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, JobDetail{Job: job, Analysis: analysis})
}

// handleListJobStages returns the persisted per-stage trail for a job.
func (s *Server) handleListJobStages(w http.ResponseWriter, r *http.Request) {
	_, job, ok := s.loadOwnedJob(w, r)
	if !ok {
		return
	}

	stages, err := s.jobs.ListJobStages(r.Context(), job.ID)
	if err != nil {
		s.log.Error("failed to list job stages", zap.Error(err))
		http.Error(w, "Failed to list stages", http.StatusInternalServerError)
		return
	}
	if stages == nil {
		stages = []db.JobStage{}
	}
	writeJSON(w, http.StatusOK, stages)
}

// loadOwnedJob parses the {id} path value and enforces ownership.
// Superadmins may read any job.
func (s *Server) loadOwnedJob(w http.ResponseWriter, r *http.Request) (uuid.UUID, *db.Job, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return uuid.Nil, nil, false
	}

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid job id", http.StatusBadRequest)
		return uuid.Nil, nil, false
	}

	job, err := s.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		s.log.Error("failed to load job", zap.Error(err))
		http.Error(w, "Failed to load job", http.StatusInternalServerError)
		return uuid.Nil, nil, false
	}
	if job == nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return uuid.Nil, nil, false
	}
	if job.UserID != userID {
		caller, err := s.users.GetUserByID(r.Context(), userID)
		if err != nil || !caller.IsSuperAdmin() {
			http.Error(w, "Job not found", http.StatusNotFound)
			return uuid.Nil, nil, false
		}
	}
	return userID, job, true
}
