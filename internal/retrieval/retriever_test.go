package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/db"
)

type fakeEmbedder struct {
	gotText string
	vector  []float32
	err     error
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.gotText = text
	return f.vector, f.err
}

type fakeSearcher struct {
	gotQuery db.ChunkQuery
	gotLimit int
	matches  []db.ChunkMatch
	err      error
}

func (f *fakeSearcher) SearchResumeChunks(_ context.Context, _ []float32, query db.ChunkQuery, limit int) ([]db.ChunkMatch, error) {
	f.gotQuery = query
	f.gotLimit = limit
	return f.matches, f.err
}

func TestRetrieveScoping(t *testing.T) {
	userID := uuid.New()
	genai := "GenAI"

	tests := []struct {
		name string
		user *db.User
		want db.ChunkQuery
	}{
		{
			name: "superadmin searches all chunks",
			user: &db.User{ID: userID, Role: db.RoleSuperAdmin},
			want: db.ChunkQuery{UserID: userID, AllUsers: true},
		},
		{
			name: "domain-scoped user searches the domain",
			user: &db.User{ID: userID, Role: db.RoleUser, Domain: &genai},
			want: db.ChunkQuery{UserID: userID, Domain: &genai},
		},
		{
			name: "unscoped user searches own chunks",
			user: &db.User{ID: userID, Role: db.RoleUser},
			want: db.ChunkQuery{UserID: userID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			r := NewRetriever(&fakeEmbedder{vector: []float32{0.1}}, searcher, zap.NewNop())

			_, err := r.Retrieve(context.Background(), "posting", tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.want, searcher.gotQuery)
			assert.Equal(t, TopK, searcher.gotLimit)
		})
	}
}

func TestRetrieveTruncatesEmbeddingInput(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	r := NewRetriever(embedder, &fakeSearcher{}, zap.NewNop())

	long := strings.Repeat("x", maxEmbedInputBytes+500)
	_, err := r.Retrieve(context.Background(), long, &db.User{ID: uuid.New()})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(embedder.gotText), maxEmbedInputBytes)
}

func TestRetrieveEmbedError(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{err: errors.New("quota")}, &fakeSearcher{}, zap.NewNop())

	_, err := r.Retrieve(context.Background(), "posting", &db.User{ID: uuid.New()})
	assert.Error(t, err)
}

func TestFormatContext(t *testing.T) {
	t.Run("numbers matches", func(t *testing.T) {
		out := FormatContext([]db.ChunkMatch{
			{Content: "Built a Go payments API"},
			{Content: "Led a Postgres migration"},
		})
		assert.Equal(t, "[1] Built a Go payments API\n\n[2] Led a Postgres migration", out)
	})

	t.Run("empty matches get placeholder", func(t *testing.T) {
		assert.Equal(t, "(no resume material on file)", FormatContext(nil))
	})
}
