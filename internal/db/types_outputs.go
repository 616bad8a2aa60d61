package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/proposal-agent/internal/types"
)

// AnalysisOutput holds the persisted stage outputs for a job. Exactly one
// row exists per job; proposal and critique stages update fields in place.
type AnalysisOutput struct {
	ID                  uuid.UUID                  `json:"id"`
	JobID               uuid.UUID                  `json:"jobId"`
	Persona             *types.Persona             `json:"personaAnalysis,omitempty"`
	RequirementsMatrix  *types.RequirementsMatrix  `json:"requirementsMatrix,omitempty"`
	ClarifyingQuestions []types.ClarifyingQuestion `json:"clarifyingQuestions,omitempty"`
	FitReasoning        []string                   `json:"fitReasoning,omitempty"`
	RejectionReason     *string                    `json:"rejectionReason,omitempty"`
	ProposalText        *string                    `json:"proposalText,omitempty"`
	RefinedProposalText *string                    `json:"refinedProposalText,omitempty"`
	CreatedAt           time.Time                  `json:"createdAt"`
}

// AnalysisOutputInput is used when creating the analysis output row.
// Matrix, questions, and reasoning are nil on gate rejection, where only the
// persona is persisted for diagnostics.
type AnalysisOutputInput struct {
	JobID               uuid.UUID
	Persona             *types.Persona
	RequirementsMatrix  *types.RequirementsMatrix
	ClarifyingQuestions []types.ClarifyingQuestion
	FitReasoning        []string
	RejectionReason     string
}
