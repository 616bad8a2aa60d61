package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/llm"
	"github.com/jonathan/proposal-agent/internal/prompts"
	"github.com/jonathan/proposal-agent/internal/retrieval"
)

// Request-level errors surfaced to the API caller. None of them
// advances the job's status.
var (
	ErrJobNotFound     = errors.New("job not found")
	ErrAnalysisMissing = errors.New("analysis not found, run analysis first")
	ErrJobNotReady     = errors.New("job analysis has not completed")
	ErrProposalMissing = errors.New("proposal not found, generate a proposal first")
)

// Store is the persistence surface the proposal stages need.
type Store interface {
	GetJob(ctx context.Context, id uuid.UUID) (*db.Job, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetAnalysisOutputByJob(ctx context.Context, jobID uuid.UUID) (*db.AnalysisOutput, error)
	SetProposalText(ctx context.Context, jobID uuid.UUID, text string) error
	SetRefinedProposalText(ctx context.Context, jobID uuid.UUID, text string) error
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string) error
	SaveStageOutput(ctx context.Context, jobID uuid.UUID, stage string, output any) error
	CreateHistoryEntry(ctx context.Context, input db.HistoryCreateInput) (*db.HistoryEntry, error)
}

// Retriever finds resume context for the synthesis prompt.
type Retriever interface {
	Retrieve(ctx context.Context, postingText string, user *db.User) ([]db.ChunkMatch, error)
}

// Resolver turns a job's stored input into posting text.
type Resolver interface {
	Resolve(ctx context.Context, inputType, content string) (string, error)
}

// Generator is the LLM surface used for synthesis, critique and chat.
// llm.Client satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// Service runs the proposal synthesis and critique stages.
type Service struct {
	store     Store
	client    Generator
	retriever Retriever
	resolver  Resolver
	log       *zap.Logger
}

// NewService creates a proposal service.
func NewService(store Store, client Generator, retriever Retriever, resolver Resolver, log *zap.Logger) *Service {
	return &Service{store: store, client: client, retriever: retriever, resolver: resolver, log: log}
}

// Synthesize produces proposal text for a completed job. Idempotent at
// the job level: once text is persisted, later calls return it
// verbatim without another LLM call.
func (s *Service) Synthesize(ctx context.Context, jobID, callerID uuid.UUID) (string, error) {
	job, output, err := s.loadJob(ctx, jobID, callerID)
	if err != nil {
		return "", err
	}
	if output == nil {
		return "", ErrAnalysisMissing
	}
	if output.ProposalText != nil {
		// A crash between SetProposalText and the status update leaves
		// the job at COMPLETED; repair it here so the cached path still
		// advances the job.
		if job.Status == db.StatusCompleted {
			if err := s.store.UpdateJobStatus(ctx, jobID, db.StatusProposalReady); err != nil {
				return "", err
			}
		}
		return *output.ProposalText, nil
	}
	if job.Status != db.StatusCompleted {
		return "", fmt.Errorf("%w: status is %s", ErrJobNotReady, job.Status)
	}

	user, err := s.store.GetUserByID(ctx, job.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("user %s not found", job.UserID)
	}

	text, err := s.resolver.Resolve(ctx, job.InputType, job.InputContent)
	if err != nil {
		return "", fmt.Errorf("failed to resolve job input: %w", err)
	}

	matches, err := s.retriever.Retrieve(ctx, text, user)
	if err != nil {
		return "", err
	}

	personaJSON, _ := json.Marshal(output.Persona)
	matrixJSON, _ := json.Marshal(output.RequirementsMatrix)

	template := prompts.MustGet("proposal.json", "synthesize")
	prompt := prompts.Format(template, map[string]string{
		"JobDescription": text,
		"Persona":        string(personaJSON),
		"Matrix":         string(matrixJSON),
		"ResumeContext":  retrieval.FormatContext(matches),
	})

	raw, err := s.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", fmt.Errorf("proposal generation failed: %w", err)
	}

	final := EnforceStructure(raw)

	if err := s.store.SaveStageOutput(ctx, jobID, db.StageProposal, final); err != nil {
		return "", err
	}
	if err := s.store.SetProposalText(ctx, jobID, final); err != nil {
		return "", err
	}
	if err := s.store.UpdateJobStatus(ctx, jobID, db.StatusProposalReady); err != nil {
		return "", err
	}

	s.log.Info("proposal synthesized",
		zap.String("jobId", jobID.String()),
		zap.Int("resumeChunks", len(matches)),
		zap.Int("chars", len(final)))
	return final, nil
}

// loadJob fetches the job with an ownership check plus its analysis
// output. Superadmins may act on any job.
func (s *Service) loadJob(ctx context.Context, jobID, callerID uuid.UUID) (*db.Job, *db.AnalysisOutput, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return nil, nil, ErrJobNotFound
	}
	if job.UserID != callerID {
		caller, err := s.store.GetUserByID(ctx, callerID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load caller: %w", err)
		}
		if !caller.IsSuperAdmin() {
			return nil, nil, ErrJobNotFound
		}
	}

	output, err := s.store.GetAnalysisOutputByJob(ctx, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load analysis output: %w", err)
	}
	return job, output, nil
}
