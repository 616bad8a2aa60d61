package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateAnalysisOutput inserts the one analysis output row for a job. A
// re-run of the same job overwrites the analysis fields in place rather than
// creating a second row.
func (db *DB) CreateAnalysisOutput(ctx context.Context, input *AnalysisOutputInput) error {
	var personaJSON, matrixJSON, questionsJSON, reasoningJSON []byte
	var err error
	if input.Persona != nil {
		if personaJSON, err = json.Marshal(input.Persona); err != nil {
			return fmt.Errorf("failed to marshal persona: %w", err)
		}
	}
	if input.RequirementsMatrix != nil {
		if matrixJSON, err = json.Marshal(input.RequirementsMatrix); err != nil {
			return fmt.Errorf("failed to marshal requirements matrix: %w", err)
		}
	}
	if input.ClarifyingQuestions != nil {
		if questionsJSON, err = json.Marshal(input.ClarifyingQuestions); err != nil {
			return fmt.Errorf("failed to marshal clarifying questions: %w", err)
		}
	}
	if input.FitReasoning != nil {
		if reasoningJSON, err = json.Marshal(input.FitReasoning); err != nil {
			return fmt.Errorf("failed to marshal fit reasoning: %w", err)
		}
	}

	var rejection *string
	if input.RejectionReason != "" {
		rejection = &input.RejectionReason
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO analysis_outputs (job_id, persona, requirements_matrix, clarifying_questions, fit_reasoning, rejection_reason)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (job_id) DO UPDATE SET
		   persona = $2, requirements_matrix = $3, clarifying_questions = $4,
		   fit_reasoning = $5, rejection_reason = $6`,
		input.JobID, personaJSON, matrixJSON, questionsJSON, reasoningJSON, rejection,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis output: %w", err)
	}
	return nil
}

// GetAnalysisOutputByJob retrieves a job's analysis output, or nil when the
// pipeline has not produced one yet.
func (db *DB) GetAnalysisOutputByJob(ctx context.Context, jobID uuid.UUID) (*AnalysisOutput, error) {
	var out AnalysisOutput
	var personaJSON, matrixJSON, questionsJSON, reasoningJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, job_id, persona, requirements_matrix, clarifying_questions, fit_reasoning,
		        rejection_reason, proposal_text, refined_proposal_text, created_at
		 FROM analysis_outputs WHERE job_id = $1`,
		jobID,
	).Scan(&out.ID, &out.JobID, &personaJSON, &matrixJSON, &questionsJSON, &reasoningJSON,
		&out.RejectionReason, &out.ProposalText, &out.RefinedProposalText, &out.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis output: %w", err)
	}

	if personaJSON != nil {
		_ = json.Unmarshal(personaJSON, &out.Persona)
	}
	if matrixJSON != nil {
		_ = json.Unmarshal(matrixJSON, &out.RequirementsMatrix)
	}
	if questionsJSON != nil {
		_ = json.Unmarshal(questionsJSON, &out.ClarifyingQuestions)
	}
	if reasoningJSON != nil {
		_ = json.Unmarshal(reasoningJSON, &out.FitReasoning)
	}

	return &out, nil
}

// SetProposalText writes only the proposal text field
func (db *DB) SetProposalText(ctx context.Context, jobID uuid.UUID, text string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE analysis_outputs SET proposal_text = $1 WHERE job_id = $2`,
		text, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to set proposal text: %w", err)
	}
	return nil
}

// SetRefinedProposalText writes only the refined proposal text field
func (db *DB) SetRefinedProposalText(ctx context.Context, jobID uuid.UUID, text string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE analysis_outputs SET refined_proposal_text = $1 WHERE job_id = $2`,
		text, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to set refined proposal text: %w", err)
	}
	return nil
}
