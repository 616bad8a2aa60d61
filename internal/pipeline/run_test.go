package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/types"
)

// fakeStore records pipeline persistence calls in memory.
type fakeStore struct {
	mu sync.Mutex

	jobs  map[uuid.UUID]*db.Job
	users map[uuid.UUID]*db.User

	statuses     []string
	stages       []string
	scoredWith   *scoredCall
	rejectedAs   string
	output       *db.AnalysisOutputInput
	saveStageErr error
}

type scoredCall struct {
	status string
	domain string
	score  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:  make(map[uuid.UUID]*db.Job),
		users: make(map[uuid.UUID]*db.User),
	}
}

func (s *fakeStore) GetJob(_ context.Context, id uuid.UUID) (*db.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id], nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *fakeStore) UpdateJobStatus(_ context.Context, _ uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *fakeStore) UpdateJobDomainStatus(_ context.Context, _ uuid.UUID, status, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
	s.rejectedAs = domain
	return nil
}

func (s *fakeStore) UpdateJobScored(_ context.Context, _ uuid.UUID, status, domain string, fitScore int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
	s.scoredWith = &scoredCall{status: status, domain: domain, score: fitScore}
	return nil
}

func (s *fakeStore) SaveStageOutput(_ context.Context, _ uuid.UUID, stage string, _ any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveStageErr != nil {
		return s.saveStageErr
	}
	s.stages = append(s.stages, stage)
	return nil
}

func (s *fakeStore) CreateAnalysisOutput(_ context.Context, input *db.AnalysisOutputInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = input
	return nil
}

// fakeAnalyzer returns canned stage results and records extraction
// fan-out.
type fakeAnalyzer struct {
	mu      sync.Mutex
	persona types.Persona
	routing types.DomainRouting
	matrix  types.RequirementsMatrix

	extractedDomains []string
}

func (a *fakeAnalyzer) AnalyzePersona(context.Context, string) types.Persona {
	return a.persona
}

func (a *fakeAnalyzer) RouteDomain(context.Context, string, types.Persona) types.DomainRouting {
	return a.routing
}

func (a *fakeAnalyzer) ExtractRequirements(_ context.Context, _ string, _ types.Persona, domain string) types.RequirementsMatrix {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.extractedDomains = append(a.extractedDomains, domain)
	return a.matrix
}

type fakeResolver struct {
	text string
	err  error
}

func (r *fakeResolver) Resolve(context.Context, string, string) (string, error) {
	return r.text, r.err
}

func seedJob(store *fakeStore, userDomain *string, role string) *db.Job {
	userID := uuid.New()
	jobID := uuid.New()
	store.users[userID] = &db.User{ID: userID, Email: "dev@example.com", Role: role, Domain: userDomain}
	store.jobs[jobID] = &db.Job{
		ID: jobID, UserID: userID, Title: "API build",
		InputType: db.InputTypeText, InputContent: "Build an API",
		Status: db.StatusQueued,
	}
	return store.jobs[jobID]
}

func strongPersona() types.Persona {
	return types.Persona{
		TechnicalLevel: types.TechnicalLevelTechnical,
		Tone:           types.ToneProfessional,
		Urgency:        types.LevelHigh,
		HasBudget:      true,
		AmbiguityLevel: types.LevelLow,
	}
}

func TestRunHappyPath(t *testing.T) {
	store := newFakeStore()
	job := seedJob(store, nil, db.RoleUser)
	analyzer := &fakeAnalyzer{
		persona: strongPersona(),
		routing: types.DomainRouting{PrimaryDomain: types.DomainFullstack, SecondaryDomains: []string{}, Confidence: 0.9},
		matrix:  types.RequirementsMatrix{Explicit: []string{"Go"}, ClarifyingQuestions: []types.ClarifyingQuestion{}},
	}
	p := New(store, analyzer, &fakeResolver{text: "Build an API"}, zap.NewNop())

	require.NoError(t, p.Run(context.Background(), job.ID))

	// 40 domain + 30 low ambiguity + 5 baseline + 15 budget + 10 urgency
	require.NotNil(t, store.scoredWith)
	assert.Equal(t, 100, store.scoredWith.score)
	assert.Equal(t, db.StatusCompleted, store.scoredWith.status)
	assert.Equal(t, types.DomainFullstack, store.scoredWith.domain)

	assert.Equal(t, []string{db.StatusProcessing, db.StatusCompleted}, store.statuses)
	assert.Equal(t, []string{db.StagePersona, db.StageRouting, db.StageGate, db.StageRequirements, db.StageScoring}, store.stages)

	require.NotNil(t, store.output)
	require.NotNil(t, store.output.Persona)
	require.NotNil(t, store.output.RequirementsMatrix)
	assert.Equal(t, []string{"Go"}, store.output.RequirementsMatrix.Explicit)
	assert.Empty(t, store.output.RejectionReason)
	assert.NotEmpty(t, store.output.FitReasoning)
}

func TestRunGateRejection(t *testing.T) {
	store := newFakeStore()
	devops := types.DomainDevOps
	job := seedJob(store, &devops, db.RoleUser)
	analyzer := &fakeAnalyzer{
		persona: strongPersona(),
		routing: types.DomainRouting{PrimaryDomain: types.DomainGenAI, SecondaryDomains: []string{}, Confidence: 0.9},
	}
	p := New(store, analyzer, &fakeResolver{text: "Build a chatbot"}, zap.NewNop())

	require.NoError(t, p.Run(context.Background(), job.ID))

	assert.Equal(t, []string{db.StatusProcessing, db.StatusRejected}, store.statuses)
	assert.Equal(t, types.DomainGenAI, store.rejectedAs)
	// No extraction happens past the gate.
	assert.Empty(t, analyzer.extractedDomains)
	assert.Equal(t, []string{db.StagePersona, db.StageRouting, db.StageGate}, store.stages)

	require.NotNil(t, store.output)
	require.NotNil(t, store.output.Persona)
	assert.Nil(t, store.output.RequirementsMatrix)
	assert.Contains(t, store.output.RejectionReason, "domain mismatch")
}

func TestRunSuperAdminBypassesGate(t *testing.T) {
	store := newFakeStore()
	devops := types.DomainDevOps
	job := seedJob(store, &devops, db.RoleSuperAdmin)
	analyzer := &fakeAnalyzer{
		persona: strongPersona(),
		routing: types.DomainRouting{PrimaryDomain: types.DomainGenAI, SecondaryDomains: []string{}, Confidence: 0.9},
		matrix:  types.EmptyMatrix(),
	}
	p := New(store, analyzer, &fakeResolver{text: "Build a chatbot"}, zap.NewNop())

	require.NoError(t, p.Run(context.Background(), job.ID))
	require.NotNil(t, store.scoredWith)
	assert.Equal(t, db.StatusCompleted, store.scoredWith.status)
}

func TestRunLowScoreRejects(t *testing.T) {
	store := newFakeStore()
	job := seedJob(store, nil, db.RoleUser)
	// 40 domain + 0 high ambiguity + 5 baseline = 45, below 50
	analyzer := &fakeAnalyzer{
		persona: types.Persona{
			TechnicalLevel: types.TechnicalLevelNonTechnical,
			Tone:           types.ToneCasual,
			Urgency:        types.LevelLow,
			HasBudget:      false,
			AmbiguityLevel: types.LevelHigh,
		},
		routing: types.DomainRouting{PrimaryDomain: types.DomainFullstack, SecondaryDomains: []string{}, Confidence: 0.9},
		matrix:  types.EmptyMatrix(),
	}
	p := New(store, analyzer, &fakeResolver{text: "vague gig"}, zap.NewNop())

	require.NoError(t, p.Run(context.Background(), job.ID))

	require.NotNil(t, store.scoredWith)
	assert.Equal(t, db.StatusRejected, store.scoredWith.status)
	assert.Equal(t, 45, store.scoredWith.score)
	// Matrix and reasoning still persist for rejected-by-score jobs.
	require.NotNil(t, store.output)
	assert.NotNil(t, store.output.RequirementsMatrix)
	assert.NotEmpty(t, store.output.FitReasoning)
}

func TestRunExtractionFanOut(t *testing.T) {
	tests := []struct {
		name    string
		routing types.DomainRouting
		want    []string
	}{
		{
			name:    "confident with secondary",
			routing: types.DomainRouting{PrimaryDomain: types.DomainGenAI, SecondaryDomains: []string{types.DomainAIML, types.DomainDevOps}, Confidence: 0.9},
			want:    []string{types.DomainGenAI, types.DomainAIML},
		},
		{
			name:    "confidence at threshold stays primary-only",
			routing: types.DomainRouting{PrimaryDomain: types.DomainGenAI, SecondaryDomains: []string{types.DomainAIML}, Confidence: 0.7},
			want:    []string{types.DomainGenAI},
		},
		{
			name:    "no secondaries",
			routing: types.DomainRouting{PrimaryDomain: types.DomainGenAI, SecondaryDomains: []string{}, Confidence: 0.95},
			want:    []string{types.DomainGenAI},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			job := seedJob(store, nil, db.RoleUser)
			analyzer := &fakeAnalyzer{persona: strongPersona(), routing: tt.routing, matrix: types.EmptyMatrix()}
			p := New(store, analyzer, &fakeResolver{text: "Build a chatbot"}, zap.NewNop())

			require.NoError(t, p.Run(context.Background(), job.ID))
			assert.ElementsMatch(t, tt.want, analyzer.extractedDomains)
		})
	}
}

func TestRunResolveFailureMarksFailed(t *testing.T) {
	store := newFakeStore()
	job := seedJob(store, nil, db.RoleUser)
	analyzer := &fakeAnalyzer{persona: strongPersona(), routing: types.FallbackRouting()}
	p := New(store, analyzer, &fakeResolver{err: errors.New("fetch blew up")}, zap.NewNop())

	err := p.Run(context.Background(), job.ID)
	require.Error(t, err)
	assert.Equal(t, []string{db.StatusProcessing, db.StatusFailed}, store.statuses)
	assert.Nil(t, store.output)
}

func TestRunPersistenceFailureMarksFailed(t *testing.T) {
	store := newFakeStore()
	store.saveStageErr = errors.New("db down")
	job := seedJob(store, nil, db.RoleUser)
	analyzer := &fakeAnalyzer{persona: strongPersona(), routing: types.FallbackRouting(), matrix: types.EmptyMatrix()}
	p := New(store, analyzer, &fakeResolver{text: "Build an API"}, zap.NewNop())

	err := p.Run(context.Background(), job.ID)
	require.Error(t, err)
	assert.Equal(t, []string{db.StatusProcessing, db.StatusFailed}, store.statuses)
}

func TestRunUnknownJob(t *testing.T) {
	store := newFakeStore()
	p := New(store, &fakeAnalyzer{}, &fakeResolver{text: "x"}, zap.NewNop())

	err := p.Run(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunnerProcessesQueuedJob(t *testing.T) {
	store := newFakeStore()
	job := seedJob(store, nil, db.RoleUser)
	analyzer := &fakeAnalyzer{
		persona: strongPersona(),
		routing: types.DomainRouting{PrimaryDomain: types.DomainFullstack, SecondaryDomains: []string{}, Confidence: 0.9},
		matrix:  types.EmptyMatrix(),
	}
	p := New(store, analyzer, &fakeResolver{text: "Build an API"}, zap.NewNop())
	runner := NewRunner(p, 2, 8, time.Minute, zap.NewNop())

	assert.True(t, runner.Enqueue(job.ID))
	runner.Stop()

	require.NotNil(t, store.scoredWith)
	assert.Equal(t, db.StatusCompleted, store.scoredWith.status)
}

func TestRunnerEnqueueAfterStop(t *testing.T) {
	p := New(newFakeStore(), &fakeAnalyzer{}, &fakeResolver{text: "x"}, zap.NewNop())
	runner := NewRunner(p, 1, 1, time.Minute, zap.NewNop())
	runner.Stop()

	assert.False(t, runner.Enqueue(uuid.New()))
}
