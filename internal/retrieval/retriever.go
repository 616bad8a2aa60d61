// Package retrieval finds the resume chunks most relevant to a job by
// embedding the posting text and running a nearest-neighbor search
// over stored chunk embeddings.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/llm"
)

// TopK is the number of chunks retrieved per job.
const TopK = 7

// maxEmbedInputBytes caps the text sent to the embedding model. The
// full posting is stored either way; only the embedded prefix is
// truncated.
const maxEmbedInputBytes = 9000

// Embedder produces embedding vectors for text. llm.Client satisfies it.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs vector similarity queries over stored chunks.
type Searcher interface {
	SearchResumeChunks(ctx context.Context, embedding []float32, query db.ChunkQuery, limit int) ([]db.ChunkMatch, error)
}

// Retriever embeds query text and searches the chunk store.
type Retriever struct {
	embedder Embedder
	store    Searcher
	log      *zap.Logger
}

// NewRetriever creates a retriever.
func NewRetriever(embedder Embedder, store Searcher, log *zap.Logger) *Retriever {
	return &Retriever{embedder: embedder, store: store, log: log}
}

// Retrieve returns the TopK chunks closest to the posting text, scoped
// to what the user may see: superadmins search every chunk, users with
// a configured domain search that domain's chunks, and everyone else
// searches only their own.
func (r *Retriever) Retrieve(ctx context.Context, postingText string, user *db.User) ([]db.ChunkMatch, error) {
	embedding, err := r.embedder.GenerateEmbedding(ctx, llm.TruncateForEmbedding(postingText, maxEmbedInputBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to embed posting text: %w", err)
	}

	query := db.ChunkQuery{UserID: user.ID}
	switch {
	case user.IsSuperAdmin():
		query.AllUsers = true
	case user.Domain != nil:
		query.Domain = user.Domain
	}

	matches, err := r.store.SearchResumeChunks(ctx, embedding, query, TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to search resume chunks: %w", err)
	}

	r.log.Debug("retrieved resume context",
		zap.String("userId", user.ID.String()),
		zap.Int("matches", len(matches)))
	return matches, nil
}

// FormatContext renders matches as the resume-context block consumed
// by the proposal prompt. Returns a placeholder when nothing matched
// so the prompt never carries an empty section.
func FormatContext(matches []db.ChunkMatch) string {
	if len(matches) == 0 {
		return "(no resume material on file)"
	}
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, m.Content)
	}
	return strings.Join(parts, "\n\n")
}
