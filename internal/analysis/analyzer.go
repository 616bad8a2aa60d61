// Package analysis implements the LLM-backed job analysis stages: persona
// inference, domain routing, eligibility gating, per-domain requirement
// extraction, consolidation, and deterministic fit scoring.
//
// Every LLM-backed stage is fail-soft: on a call, parse, or schema failure it
// returns its documented fallback value instead of an error, so one flaky
// classification never aborts the rest of the pipeline.
package analysis

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/llm"
	"github.com/jonathan/proposal-agent/internal/prompts"
	"github.com/jonathan/proposal-agent/internal/schemas"
	"github.com/jonathan/proposal-agent/internal/types"
)

// Analyzer runs the LLM-backed analysis stages.
type Analyzer struct {
	client llm.Client
	log    *zap.Logger
}

// NewAnalyzer creates an analyzer backed by the given LLM client.
func NewAnalyzer(client llm.Client, log *zap.Logger) *Analyzer {
	return &Analyzer{client: client, log: log}
}

// AnalyzePersona classifies a job description into client-trait attributes.
// Always returns a structurally valid Persona; on any failure it returns the
// documented fallback persona.
func (a *Analyzer) AnalyzePersona(ctx context.Context, jobDescription string) types.Persona {
	template := prompts.MustGet("analysis.json", "analyze-persona")
	prompt := prompts.Format(template, map[string]string{
		"JobDescription": jobDescription,
	})

	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		a.log.Warn("persona analysis failed, using fallback", zap.Error(err))
		return types.FallbackPersona()
	}

	if err := schemas.ValidateStage(schemas.StagePersona, raw); err != nil {
		a.log.Warn("persona output rejected by schema, using fallback", zap.Error(err))
		return types.FallbackPersona()
	}

	var persona types.Persona
	if err := json.Unmarshal([]byte(raw), &persona); err != nil {
		a.log.Warn("persona output unparseable, using fallback", zap.Error(err))
		return types.FallbackPersona()
	}

	return persona
}

// RouteDomain assigns the job to a primary and secondary capability domain.
// On any failure it returns the documented fallback routing: the default
// domain with confidence 0.5, a deliberately mediocre value consumed
// downstream as a neutral prior.
func (a *Analyzer) RouteDomain(ctx context.Context, jobDescription string, persona types.Persona) types.DomainRouting {
	personaJSON, _ := json.Marshal(persona)

	template := prompts.MustGet("analysis.json", "route-domain")
	prompt := prompts.Format(template, map[string]string{
		"Persona":        string(personaJSON),
		"JobDescription": jobDescription,
	})

	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		a.log.Warn("domain routing failed, using fallback", zap.Error(err))
		return types.FallbackRouting()
	}

	if err := schemas.ValidateStage(schemas.StageRouting, raw); err != nil {
		a.log.Warn("routing output rejected by schema, using fallback", zap.Error(err))
		return types.FallbackRouting()
	}

	var routing types.DomainRouting
	if err := json.Unmarshal([]byte(raw), &routing); err != nil {
		a.log.Warn("routing output unparseable, using fallback", zap.Error(err))
		return types.FallbackRouting()
	}

	return normalizeRouting(routing)
}

// normalizeRouting is the single documented normalization pass over router
// output: secondary domains are deduplicated and the primary is removed from
// them. Anything beyond that fails schema validation upstream.
func normalizeRouting(r types.DomainRouting) types.DomainRouting {
	seen := map[string]bool{r.PrimaryDomain: true}
	secondaries := make([]string, 0, len(r.SecondaryDomains))
	for _, d := range r.SecondaryDomains {
		if !seen[d] {
			seen[d] = true
			secondaries = append(secondaries, d)
		}
	}
	r.SecondaryDomains = secondaries
	return r
}

// ExtractRequirements produces a requirements matrix for one domain's
// perspective. On any failure it returns the empty matrix, a neutral,
// non-blocking value.
func (a *Analyzer) ExtractRequirements(ctx context.Context, jobDescription string, persona types.Persona, domain string) types.RequirementsMatrix {
	personaJSON, _ := json.Marshal(persona)

	template := prompts.MustGet("analysis.json", "extract-requirements")
	prompt := prompts.Format(template, map[string]string{
		"Domain":         domain,
		"Persona":        string(personaJSON),
		"JobDescription": jobDescription,
	})

	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		a.log.Warn("requirement extraction failed, using empty matrix",
			zap.String("domain", domain), zap.Error(err))
		return types.EmptyMatrix()
	}

	if err := schemas.ValidateStage(schemas.StageMatrix, raw); err != nil {
		a.log.Warn("matrix output rejected by schema, using empty matrix",
			zap.String("domain", domain), zap.Error(err))
		return types.EmptyMatrix()
	}

	var matrix types.RequirementsMatrix
	if err := json.Unmarshal([]byte(raw), &matrix); err != nil {
		a.log.Warn("matrix output unparseable, using empty matrix",
			zap.String("domain", domain), zap.Error(err))
		return types.EmptyMatrix()
	}

	return normalizeMatrix(matrix)
}

// normalizeMatrix enforces set semantics on the five string sets and replaces
// nil slices with empty ones so persisted JSONB stays [] rather than null.
func normalizeMatrix(m types.RequirementsMatrix) types.RequirementsMatrix {
	m.Explicit = dedupe(m.Explicit)
	m.Implied = dedupe(m.Implied)
	m.Constraints = dedupe(m.Constraints)
	m.Ambiguities = dedupe(m.Ambiguities)
	m.Risks = dedupe(m.Risks)
	if m.ClarifyingQuestions == nil {
		m.ClarifyingQuestions = []types.ClarifyingQuestion{}
	}
	return m
}

// dedupe removes duplicate values, preserving first-seen order.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
