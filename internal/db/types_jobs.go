package db

import (
	"time"

	"github.com/google/uuid"
)

// Job status values. A job advances monotonically through the state machine;
// the only permitted regression target is StatusFailed.
const (
	StatusQueued        = "QUEUED"
	StatusProcessing    = "PROCESSING"
	StatusRejected      = "REJECTED"
	StatusCompleted     = "COMPLETED"
	StatusFailed        = "FAILED"
	StatusProposalReady = "PROPOSAL_READY"
	StatusFinished      = "FINISHED"
)

// Job input type values
const (
	InputTypeURL  = "URL"
	InputTypeFile = "FILE"
	InputTypeText = "TEXT"
)

// Job represents one submitted unit of analysis work
type Job struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Title        string    `json:"title"`
	InputType    string    `json:"inputType"`
	InputContent string    `json:"inputContent"`
	Domain       *string   `json:"domain,omitempty"`
	Status       string    `json:"status"`
	FitScore     *int      `json:"fitScore,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// JobCreateInput is used when submitting a new job
type JobCreateInput struct {
	UserID       uuid.UUID
	Title        string
	InputType    string
	InputContent string
}

// Terminal reports whether the job's analysis lifecycle is over. Proposal
// and critique stages still apply to COMPLETED and later states.
func (j *Job) Terminal() bool {
	switch j.Status {
	case StatusRejected, StatusFailed, StatusFinished:
		return true
	}
	return false
}

// ValidInputType reports whether t is a recognized job input type.
func ValidInputType(t string) bool {
	return t == InputTypeURL || t == InputTypeFile || t == InputTypeText
}
