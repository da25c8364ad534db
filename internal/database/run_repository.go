package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/STRATINT/activityscan/internal/models"
)

// RunRepository keeps a history of finished scans.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record stores the outcome of one scan. scanErr is the fault that ended the
// scan, if any.
func (r *RunRepository) Record(ctx context.Context, result models.ScanResult, scanErr error) error {
	query := `
		INSERT INTO scan_runs (id, flagged_count, record_count, use_comparison, status, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	run := models.RunFromResult(result, scanErr)
	var errText sql.NullString
	if run.Error != "" {
		errText = sql.NullString{String: run.Error, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		run.ScanID,
		run.FlaggedCount,
		run.RecordCount,
		run.UseComparison,
		run.Status,
		errText,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record scan run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.ScanRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, flagged_count, record_count, use_comparison, status, error, started_at, completed_at
		FROM scan_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}
	defer rows.Close()

	var runs []models.ScanRun
	for rows.Next() {
		var (
			run     models.ScanRun
			errText sql.NullString
		)
		if err := rows.Scan(
			&run.ScanID,
			&run.FlaggedCount,
			&run.RecordCount,
			&run.UseComparison,
			&run.Status,
			&errText,
			&run.StartedAt,
			&run.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run.Error = errText.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
