package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/llm"
	"github.com/jonathan/proposal-agent/internal/prompts"
	"github.com/jonathan/proposal-agent/internal/retrieval"
)

// chatReply is the JSON shape the model is asked to return for a
// free-form question.
type chatReply struct {
	FitScore            int                `json:"fitscore"`
	Proposal            string             `json:"proposal"`
	RequirementMatrix   []requirementMatch `json:"requirementMatrix"`
	ClarifyingQuestions []string           `json:"clarifyingQuestions"`
}

type requirementMatch struct {
	Requirement string `json:"requirement"`
	Match       string `json:"match"`
}

// Answer handles a free-form question (typically a pasted job
// description) outside the staged pipeline: it retrieves the caller's
// resume material, asks for a scored proposal in one shot and persists
// the exchange as a history entry. Persistence is best-effort; a
// failed write is logged and the unsaved entry returned.
func (s *Service) Answer(ctx context.Context, user *db.User, question string) (*db.HistoryEntry, error) {
	matches, err := s.retriever.Retrieve(ctx, question, user)
	if err != nil {
		return nil, err
	}

	var (
		answer   string
		fitScore int
	)
	if len(matches) == 0 {
		answer = noMaterialAnswer(user.Domain)
	} else {
		template := prompts.MustGet("proposal.json", "chat")
		prompt := prompts.Format(template, map[string]string{
			"Question":      question,
			"ResumeContext": retrieval.FormatContext(matches),
		})

		raw, err := s.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
		if err != nil {
			return nil, fmt.Errorf("chat generation failed: %w", err)
		}
		answer, fitScore = composeChatAnswer(raw)
	}

	entry, err := s.store.CreateHistoryEntry(ctx, db.HistoryCreateInput{
		UserID:   user.ID,
		Question: question,
		Answer:   answer,
		FitScore: fitScore,
	})
	if err != nil {
		s.log.Warn("failed to persist history entry", zap.Error(err))
		return &db.HistoryEntry{
			ID:        uuid.New(),
			UserID:    user.ID,
			Question:  question,
			Answer:    answer,
			FitScore:  fitScore,
			CreatedAt: time.Now().UTC(),
		}, nil
	}
	return entry, nil
}

// composeChatAnswer flattens the model's structured reply into a
// single markdown answer. A reply that fails to parse is passed
// through verbatim with a zero score.
func composeChatAnswer(raw string) (string, int) {
	var reply chatReply
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(raw)), &reply); err != nil {
		return strings.TrimSpace(raw), 0
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(reply.Proposal))
	if len(reply.RequirementMatrix) > 0 {
		b.WriteString("\n\n## Requirement Matrix\n")
		for _, m := range reply.RequirementMatrix {
			b.WriteString(fmt.Sprintf("- **%s**: %s\n", m.Requirement, m.Match))
		}
	}
	if len(reply.ClarifyingQuestions) > 0 {
		b.WriteString("\n## Clarifying Questions\n")
		for _, q := range reply.ClarifyingQuestions {
			b.WriteString("- " + q + "\n")
		}
	}
	return strings.TrimSpace(b.String()), reply.FitScore
}

// noMaterialAnswer is returned without a model call when retrieval
// finds nothing to ground a proposal on.
func noMaterialAnswer(domain *string) string {
	scope := ""
	if domain != nil {
		scope = fmt.Sprintf(" for the domain **%s**", *domain)
	}
	return fmt.Sprintf("### No Resume Material Found%s\n"+
		"There is no resume material on file%s yet. "+
		"Upload or generate a resume before asking for a proposal.", scope, scope)
}
