package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const jobColumns = `id, user_id, title, input_type, input_content, domain, status, fit_score, created_at, updated_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.UserID, &j.Title, &j.InputType, &j.InputContent,
		&j.Domain, &j.Status, &j.FitScore, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return &j, nil
}

// CreateJob inserts a new job in QUEUED status and returns it
func (db *DB) CreateJob(ctx context.Context, input *JobCreateInput) (*Job, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (user_id, title, input_type, input_content, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+jobColumns,
		input.UserID, input.Title, input.InputType, input.InputContent, StatusQueued,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// GetJob retrieves a job by id, or nil when it does not exist
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	return scanJob(db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
}

// ListJobsByUser retrieves a user's jobs, newest first
func (db *DB) ListJobsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.UserID, &j.Title, &j.InputType, &j.InputContent,
			&j.Domain, &j.Status, &j.FitScore, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// UpdateJobStatus performs a status-only partial update
func (db *DB) UpdateJobStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// UpdateJobDomainStatus updates status together with the routed domain.
// Used on gate rejection, where the routed domain is recorded even though
// no score was computed.
func (db *DB) UpdateJobDomainStatus(ctx context.Context, id uuid.UUID, status, domain string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, domain = $2, updated_at = NOW() WHERE id = $3`,
		status, domain, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update job domain/status: %w", err)
	}
	return nil
}

// UpdateJobScored writes the scored result: status, domain, and fit score together
func (db *DB) UpdateJobScored(ctx context.Context, id uuid.UUID, status, domain string, fitScore int) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, domain = $2, fit_score = $3, updated_at = NOW() WHERE id = $4`,
		status, domain, fitScore, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update job result: %w", err)
	}
	return nil
}
