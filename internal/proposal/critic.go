package proposal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/llm"
	"github.com/jonathan/proposal-agent/internal/prompts"
)

// CritiqueResult pairs the stored proposal with its refinement.
type CritiqueResult struct {
	Original string `json:"original"`
	Refined  string `json:"refined"`
}

// Critique runs a single editorial rewrite pass over an existing
// proposal. Refinement is best-effort: when the LLM call fails, the
// original text is stored as the refined version unchanged.
func (s *Service) Critique(ctx context.Context, jobID, callerID uuid.UUID) (*CritiqueResult, error) {
	job, output, err := s.loadJob(ctx, jobID, callerID)
	if err != nil {
		return nil, err
	}
	if output == nil || output.ProposalText == nil {
		return nil, ErrProposalMissing
	}
	original := *output.ProposalText

	text, err := s.resolver.Resolve(ctx, job.InputType, job.InputContent)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve job input: %w", err)
	}

	template := prompts.MustGet("proposal.json", "critique")
	prompt := prompts.Format(template, map[string]string{
		"JobDescription": text,
		"Proposal":       original,
	})

	refined := original
	raw, err := s.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		s.log.Warn("critique pass failed, keeping original proposal",
			zap.String("jobId", jobID.String()), zap.Error(err))
	} else {
		refined = EnforceStructure(raw)
	}

	if err := s.store.SaveStageOutput(ctx, jobID, db.StageCritique, refined); err != nil {
		return nil, err
	}
	if err := s.store.SetRefinedProposalText(ctx, jobID, refined); err != nil {
		return nil, err
	}
	if err := s.store.UpdateJobStatus(ctx, jobID, db.StatusFinished); err != nil {
		return nil, err
	}

	return &CritiqueResult{Original: original, Refined: refined}, nil
}
