package proposal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/proposal-agent/internal/db"
)

func chatUser(domain *string) *db.User {
	return &db.User{ID: uuid.New(), Email: "dev@example.com", Role: db.RoleUser, Domain: domain}
}

func TestAnswer(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{response: `{
		"fitscore": 82,
		"proposal": "I can ship this API in two weeks.",
		"requirementMatrix": [{"requirement": "Go backend", "match": "5 years of Go services"}],
		"clarifyingQuestions": ["Which cloud provider?"]
	}`}
	ret := &fakeRetriever{matches: []db.ChunkMatch{{ID: uuid.New(), Content: "Go backend work"}}}
	svc := newService(store, gen, ret)
	user := chatUser(nil)

	entry, err := svc.Answer(context.Background(), user, "Need a Go API built")
	require.NoError(t, err)

	assert.Equal(t, user.ID, entry.UserID)
	assert.Equal(t, "Need a Go API built", entry.Question)
	assert.Equal(t, 82, entry.FitScore)
	assert.True(t, strings.HasPrefix(entry.Answer, "I can ship this API"))
	assert.Contains(t, entry.Answer, "## Requirement Matrix")
	assert.Contains(t, entry.Answer, "**Go backend**: 5 years of Go services")
	assert.Contains(t, entry.Answer, "## Clarifying Questions")
	assert.Contains(t, entry.Answer, "- Which cloud provider?")
	require.Len(t, store.historySaved, 1)
	assert.Equal(t, entry.Answer, store.historySaved[0].Answer)
	assert.Equal(t, 1, gen.calls)
}

func TestAnswerNoResumeMaterial(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{response: "should never be used"}
	domain := "GenAI"
	svc := newService(store, gen, &fakeRetriever{})
	user := chatUser(&domain)

	entry, err := svc.Answer(context.Background(), user, "Need a Go API built")
	require.NoError(t, err)

	assert.Zero(t, entry.FitScore)
	assert.Contains(t, entry.Answer, "No Resume Material Found")
	assert.Contains(t, entry.Answer, "**GenAI**")
	assert.Zero(t, gen.calls, "empty retrieval must not invoke the LLM")
	assert.Len(t, store.historySaved, 1)
}

func TestAnswerUnparseableReplyIsPassedThrough(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{response: "plain text, not JSON"}
	ret := &fakeRetriever{matches: []db.ChunkMatch{{ID: uuid.New(), Content: "some work"}}}
	svc := newService(store, gen, ret)

	entry, err := svc.Answer(context.Background(), chatUser(nil), "question")
	require.NoError(t, err)

	assert.Equal(t, "plain text, not JSON", entry.Answer)
	assert.Zero(t, entry.FitScore)
}

func TestAnswerGenerationFailure(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	ret := &fakeRetriever{matches: []db.ChunkMatch{{ID: uuid.New(), Content: "some work"}}}
	svc := newService(store, gen, ret)

	_, err := svc.Answer(context.Background(), chatUser(nil), "question")
	assert.ErrorContains(t, err, "chat generation failed")
	assert.Empty(t, store.historySaved)
}

func TestAnswerPersistenceIsBestEffort(t *testing.T) {
	store := newFakeStore()
	store.historyErr = errors.New("db down")
	gen := &fakeGenerator{response: `{"fitscore": 50, "proposal": "Hello."}`}
	ret := &fakeRetriever{matches: []db.ChunkMatch{{ID: uuid.New(), Content: "some work"}}}
	svc := newService(store, gen, ret)

	entry, err := svc.Answer(context.Background(), chatUser(nil), "question")
	require.NoError(t, err)

	assert.Equal(t, "Hello.", entry.Answer)
	assert.Equal(t, 50, entry.FitScore)
	assert.NotEqual(t, uuid.Nil, entry.ID)
}

func TestComposeChatAnswer_FencedJSON(t *testing.T) {
	raw := "```json\n{\"fitscore\": 91, \"proposal\": \"Direct hit.\"}\n```"
	answer, score := composeChatAnswer(raw)
	assert.Equal(t, "Direct hit.", answer)
	assert.Equal(t, 91, score)
}
