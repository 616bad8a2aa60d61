package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveStageOutput records the output of one pipeline stage. Re-running
// a stage for the same job overwrites the previous record.
func (db *DB) SaveStageOutput(ctx context.Context, jobID uuid.UUID, stage string, output any) error {
	outputJSON, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("failed to marshal stage output: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO job_stages (job_id, stage, output)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (job_id, stage) DO UPDATE
		 SET output = $3, created_at = NOW()`,
		jobID, stage, outputJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save stage output: %w", err)
	}
	return nil
}

// GetStageOutput retrieves one stage record for a job. Returns
// (nil, nil) when the stage has not run.
func (db *DB) GetStageOutput(ctx context.Context, jobID uuid.UUID, stage string) (*JobStage, error) {
	var s JobStage
	err := db.pool.QueryRow(ctx,
		`SELECT id, job_id, stage, output, created_at
		 FROM job_stages
		 WHERE job_id = $1 AND stage = $2`,
		jobID, stage,
	).Scan(&s.ID, &s.JobID, &s.Stage, &s.Output, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stage output: %w", err)
	}
	return &s, nil
}

// ListJobStages returns every recorded stage for a job in execution
// order.
func (db *DB) ListJobStages(ctx context.Context, jobID uuid.UUID) ([]JobStage, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, stage, output, created_at
		 FROM job_stages
		 WHERE job_id = $1
		 ORDER BY created_at`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list job stages: %w", err)
	}
	defer rows.Close()

	var stages []JobStage
	for rows.Next() {
		var s JobStage
		if err := rows.Scan(&s.ID, &s.JobID, &s.Stage, &s.Output, &s.CreatedAt); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}
