package db

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one answered question from the chat surface. The
// answer is stored as composed markdown so listing history never needs
// another model call.
type HistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	FitScore  int       `json:"fitscore"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryCreateInput carries a new history entry.
type HistoryCreateInput struct {
	UserID   uuid.UUID
	Question string
	Answer   string
	FitScore int
}
