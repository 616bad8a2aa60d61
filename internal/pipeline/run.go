// Package pipeline orchestrates the job analysis run: input
// resolution, persona inference, domain routing, the eligibility
// gate, parallel requirement extraction, consolidation, and fit
// scoring. Each stage's output is persisted before the next stage
// starts, and the job row's status tracks progress end to end.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/proposal-agent/internal/analysis"
	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/types"
)

// secondaryConfidenceThreshold gates the second extraction pass: a
// secondary domain only gets its own extractor when the router was
// confident enough in its overall read of the job.
const secondaryConfidenceThreshold = 0.7

// Store is the persistence surface the pipeline needs.
type Store interface {
	GetJob(ctx context.Context, id uuid.UUID) (*db.Job, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*db.User, error)
	UpdateJobStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateJobDomainStatus(ctx context.Context, id uuid.UUID, status, domain string) error
	UpdateJobScored(ctx context.Context, id uuid.UUID, status, domain string, fitScore int) error
	SaveStageOutput(ctx context.Context, jobID uuid.UUID, stage string, output any) error
	CreateAnalysisOutput(ctx context.Context, input *db.AnalysisOutputInput) error
}

// Resolver turns a job's stored input into posting text.
type Resolver interface {
	Resolve(ctx context.Context, inputType, content string) (string, error)
}

// Analyzer runs the LLM-backed analysis stages.
type Analyzer interface {
	AnalyzePersona(ctx context.Context, jobDescription string) types.Persona
	RouteDomain(ctx context.Context, jobDescription string, persona types.Persona) types.DomainRouting
	ExtractRequirements(ctx context.Context, jobDescription string, persona types.Persona, domain string) types.RequirementsMatrix
}

// Pipeline executes analysis runs for submitted jobs.
type Pipeline struct {
	store    Store
	analyzer Analyzer
	resolver Resolver
	log      *zap.Logger
}

// New creates a pipeline.
func New(store Store, analyzer Analyzer, resolver Resolver, log *zap.Logger) *Pipeline {
	return &Pipeline{store: store, analyzer: analyzer, resolver: resolver, log: log}
}

// Run processes one job to a terminal analysis state. Any error marks
// the job FAILED; gate rejections and low fit scores mark it REJECTED
// without an error.
func (p *Pipeline) Run(ctx context.Context, jobID uuid.UUID) error {
	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}

	if err := p.store.UpdateJobStatus(ctx, jobID, db.StatusProcessing); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	if err := p.analyze(ctx, job); err != nil {
		p.log.Error("analysis run failed",
			zap.String("jobId", jobID.String()), zap.Error(err))
		// The run context may already be dead; the failure mark must
		// still go through.
		if markErr := p.store.UpdateJobStatus(context.WithoutCancel(ctx), jobID, db.StatusFailed); markErr != nil {
			p.log.Error("failed to mark job failed",
				zap.String("jobId", jobID.String()), zap.Error(markErr))
		}
		return err
	}
	return nil
}

func (p *Pipeline) analyze(ctx context.Context, job *db.Job) error {
	text, err := p.resolver.Resolve(ctx, job.InputType, job.InputContent)
	if err != nil {
		return fmt.Errorf("failed to resolve job input: %w", err)
	}

	persona := p.analyzer.AnalyzePersona(ctx, text)
	if err := p.store.SaveStageOutput(ctx, job.ID, db.StagePersona, persona); err != nil {
		return err
	}

	routing := p.analyzer.RouteDomain(ctx, text, persona)
	if err := p.store.SaveStageOutput(ctx, job.ID, db.StageRouting, routing); err != nil {
		return err
	}

	user, err := p.store.GetUserByID(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("failed to load submitting user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %s not found", job.UserID)
	}

	userDomain := ""
	if user.Domain != nil {
		userDomain = *user.Domain
	}
	gate := analysis.CheckEligibility(routing.PrimaryDomain, userDomain, user.IsSuperAdmin())
	if err := p.store.SaveStageOutput(ctx, job.ID, db.StageGate, gate); err != nil {
		return err
	}

	if !gate.Allowed {
		p.log.Info("job rejected at eligibility gate",
			zap.String("jobId", job.ID.String()),
			zap.String("primaryDomain", routing.PrimaryDomain),
			zap.String("userDomain", userDomain))
		if err := p.store.UpdateJobDomainStatus(ctx, job.ID, db.StatusRejected, routing.PrimaryDomain); err != nil {
			return err
		}
		// Gate rejections persist the persona and reason only; no
		// requirements were extracted.
		return p.store.CreateAnalysisOutput(ctx, &db.AnalysisOutputInput{
			JobID:           job.ID,
			Persona:         &persona,
			RejectionReason: gate.Reason,
		})
	}

	matrices := p.extract(ctx, text, persona, routing)
	consolidated := analysis.Consolidate(matrices...)
	if err := p.store.SaveStageOutput(ctx, job.ID, db.StageRequirements, consolidated); err != nil {
		return err
	}

	fit := analysis.ScoreFit(consolidated, persona, routing)
	if err := p.store.SaveStageOutput(ctx, job.ID, db.StageScoring, fit); err != nil {
		return err
	}

	status := db.StatusCompleted
	if fit.Route == types.RouteReject {
		status = db.StatusRejected
	}
	if err := p.store.UpdateJobScored(ctx, job.ID, status, routing.PrimaryDomain, fit.Score); err != nil {
		return err
	}

	p.log.Info("analysis run finished",
		zap.String("jobId", job.ID.String()),
		zap.String("status", status),
		zap.Int("fitScore", fit.Score),
		zap.String("route", fit.Route))

	return p.store.CreateAnalysisOutput(ctx, &db.AnalysisOutputInput{
		JobID:               job.ID,
		Persona:             &persona,
		RequirementsMatrix:  &consolidated,
		ClarifyingQuestions: consolidated.ClarifyingQuestions,
		FitReasoning:        fit.Reasoning,
	})
}

// extract fans requirement extraction out across domains: the primary
// always runs, and the best secondary joins it when one exists and
// routing confidence clears the threshold. Extractors are fail-soft,
// so the group never errors.
func (p *Pipeline) extract(ctx context.Context, text string, persona types.Persona, routing types.DomainRouting) []types.RequirementsMatrix {
	domains := []string{routing.PrimaryDomain}
	if len(routing.SecondaryDomains) > 0 && routing.Confidence > secondaryConfidenceThreshold {
		domains = append(domains, routing.SecondaryDomains[0])
	}

	matrices := make([]types.RequirementsMatrix, len(domains))
	g, gctx := errgroup.WithContext(ctx)
	for i, domain := range domains {
		g.Go(func() error {
			matrices[i] = p.analyzer.ExtractRequirements(gctx, text, persona, domain)
			return nil
		})
	}
	_ = g.Wait()
	return matrices
}
