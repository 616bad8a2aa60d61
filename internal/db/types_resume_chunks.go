package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ResumeChunk is a retrievable unit of resume or portfolio material.
// The embedding is stored alongside the full content; only the stored
// vector participates in similarity search.
type ResumeChunk struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Domain    *string         `json:"domain,omitempty"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Embedding pgvector.Vector `json:"-"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ResumeChunkCreateInput carries a new chunk and its precomputed
// embedding. Metadata is stored opaquely.
type ResumeChunkCreateInput struct {
	UserID    uuid.UUID
	Domain    *string
	Role      string
	Content   string
	Embedding []float32
	Metadata  json.RawMessage
}

// ChunkQuery scopes a similarity search. AllUsers is only honored for
// superadmin callers; Domain widens the scope from the caller's own
// chunks to every chunk tagged with that domain.
type ChunkQuery struct {
	UserID   uuid.UUID
	Domain   *string
	AllUsers bool
}

// ChunkMatch is one similarity search hit. Distance is cosine
// distance, so smaller is closer.
type ChunkMatch struct {
	ID       uuid.UUID `json:"id"`
	Content  string    `json:"content"`
	Distance float64   `json:"distance"`
}
