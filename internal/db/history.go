package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const historyColumns = `id, user_id, question, answer, fitscore, created_at`

func scanHistoryEntry(row pgx.Row) (*HistoryEntry, error) {
	var h HistoryEntry
	err := row.Scan(&h.ID, &h.UserID, &h.Question, &h.Answer, &h.FitScore, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHistoryEntry stores an answered question.
func (db *DB) CreateHistoryEntry(ctx context.Context, input HistoryCreateInput) (*HistoryEntry, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO history (user_id, question, answer, fitscore)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+historyColumns,
		input.UserID, input.Question, input.Answer, input.FitScore,
	)
	h, err := scanHistoryEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create history entry: %w", err)
	}
	return h, nil
}

// GetHistoryEntry fetches an entry by ID. Returns (nil, nil) when the
// ID is unknown.
func (db *DB) GetHistoryEntry(ctx context.Context, id uuid.UUID) (*HistoryEntry, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+historyColumns+` FROM history WHERE id = $1`, id)
	h, err := scanHistoryEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	return h, nil
}

// ListHistoryByUser returns a user's entries, newest first.
func (db *DB) ListHistoryByUser(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+historyColumns+` FROM history
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		h, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, *h)
	}
	return entries, rows.Err()
}

// DeleteHistoryEntry removes an entry. Reports whether a row was
// deleted.
func (db *DB) DeleteHistoryEntry(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM history WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete history entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
