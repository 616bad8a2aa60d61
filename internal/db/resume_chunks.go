package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

const chunkColumns = `id, user_id, domain, role, content, embedding, metadata, created_at, updated_at`

func scanChunk(row pgx.Row) (*ResumeChunk, error) {
	var c ResumeChunk
	err := row.Scan(&c.ID, &c.UserID, &c.Domain, &c.Role, &c.Content, &c.Embedding, &c.Metadata, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateResumeChunk stores a chunk with its embedding.
func (db *DB) CreateResumeChunk(ctx context.Context, input ResumeChunkCreateInput) (*ResumeChunk, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO resume_chunks (user_id, domain, role, content, embedding, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+chunkColumns,
		input.UserID, input.Domain, input.Role, input.Content,
		pgvector.NewVector(input.Embedding), input.Metadata,
	)
	c, err := scanChunk(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume chunk: %w", err)
	}
	return c, nil
}

// GetResumeChunk fetches a chunk by ID. Returns (nil, nil) when the ID
// is unknown.
func (db *DB) GetResumeChunk(ctx context.Context, id uuid.UUID) (*ResumeChunk, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+chunkColumns+` FROM resume_chunks WHERE id = $1`, id)
	c, err := scanChunk(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get resume chunk: %w", err)
	}
	return c, nil
}

// ListResumeChunks returns the chunks visible to a user, newest first.
// A configured domain widens visibility to every chunk in that domain.
func (db *DB) ListResumeChunks(ctx context.Context, userID uuid.UUID, domain *string) ([]*ResumeChunk, error) {
	where := `user_id = $1`
	args := []any{userID}
	if domain != nil {
		where = `user_id = $1 OR domain = $2`
		args = append(args, *domain)
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+chunkColumns+` FROM resume_chunks
		 WHERE `+where+`
		 ORDER BY created_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resume chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*ResumeChunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// UpdateResumeChunk changes a chunk's domain tag and role label.
// Content and its embedding are immutable after creation.
func (db *DB) UpdateResumeChunk(ctx context.Context, id uuid.UUID, domain *string, role string) (*ResumeChunk, error) {
	row := db.pool.QueryRow(ctx,
		`UPDATE resume_chunks
		 SET domain = $1, role = $2, updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+chunkColumns,
		domain, role, id,
	)
	c, err := scanChunk(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update resume chunk: %w", err)
	}
	return c, nil
}

// DeleteResumeChunk removes a chunk. Reports whether a row was deleted.
func (db *DB) DeleteResumeChunk(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM resume_chunks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete resume chunk: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SearchResumeChunks runs a nearest-neighbor search over stored
// embeddings, scoped by the query. Results come back ordered by
// ascending cosine distance.
func (db *DB) SearchResumeChunks(ctx context.Context, embedding []float32, query ChunkQuery, limit int) ([]ChunkMatch, error) {
	var (
		scope string
		args  = []any{pgvector.NewVector(embedding)}
	)
	switch {
	case query.AllUsers:
		scope = ``
	case query.Domain != nil:
		scope = `WHERE domain = $2`
		args = append(args, *query.Domain)
	default:
		scope = `WHERE user_id = $2`
		args = append(args, query.UserID)
	}
	args = append(args, limit)

	rows, err := db.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, content, embedding <=> $1 AS distance
		 FROM resume_chunks
		 %s
		 ORDER BY distance ASC
		 LIMIT $%d`, scope, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search resume chunks: %w", err)
	}
	defer rows.Close()

	var matches []ChunkMatch
	for rows.Next() {
		var m ChunkMatch
		if err := rows.Scan(&m.ID, &m.Content, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan chunk match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
