package pipeline

import (
	"context"
	"database/sql"
	"time"
)

// Repository handles database operations for analysis run tracking
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new run repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a run record and stores the generated id on run.
func (r *Repository) CreateRun(ctx context.Context, run *AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (
			run_id, input_hash, seed, status, sales_rows,
			store_skus, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	return r.db.QueryRowContext(
		ctx, query,
		run.RunID, run.InputHash, run.Seed, run.Status, run.SalesRows,
		run.StoreSKUs, run.StartedAt,
	).Scan(&run.ID)
}

// UpdateRun updates status, counts and completion of an existing run
func (r *Repository) UpdateRun(ctx context.Context, run *AnalysisRun) error {
	query := `
		UPDATE analysis_runs
		SET status = $1, store_skus = $2, completed_at = $3, error_message = $4
		WHERE id = $5
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.StoreSKUs, run.CompletedAt, run.ErrorMessage, run.ID,
	)

	return err
}

const runColumns = `id, run_id, input_hash, seed, status, sales_rows,
		       store_skus, started_at, completed_at, error_message`

func scanRun(row interface{ Scan(...any) error }) (*AnalysisRun, error) {
	run := &AnalysisRun{}
	var errMsg sql.NullString
	err := row.Scan(
		&run.ID, &run.RunID, &run.InputHash, &run.Seed, &run.Status,
		&run.SalesRows, &run.StoreSKUs, &run.StartedAt, &run.CompletedAt, &errMsg,
	)
	if err != nil {
		return nil, err
	}
	run.ErrorMessage = errMsg.String
	return run, nil
}

// GetRun retrieves a run by its public id. It returns nil when absent.
func (r *Repository) GetRun(ctx context.Context, runID string) (*AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE run_id = $1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, runID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// GetLatestByHash returns the most recent completed run for an input hash.
func (r *Repository) GetLatestByHash(ctx context.Context, inputHash string) (*AnalysisRun, error) {
	query := `SELECT ` + runColumns + `
		FROM analysis_runs
		WHERE input_hash = $1 AND status = $2
		ORDER BY started_at DESC
		LIMIT 1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, inputHash, StatusCompleted))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// ListRecentRuns returns runs started at or after since, newest first.
func (r *Repository) ListRecentRuns(ctx context.Context, since time.Time, limit int) ([]*AnalysisRun, error) {
	query := `SELECT ` + runColumns + `
		FROM analysis_runs
		WHERE started_at >= $1
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*AnalysisRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRunStats aggregates runs started at or after since.
func (r *Repository) GetRunStats(ctx context.Context, since time.Time) (*RunStats, error) {
	query := `
		SELECT
			COUNT(*) AS runs,
			COUNT(CASE WHEN status = $2 THEN 1 END) AS failed,
			COALESCE(SUM(sales_rows), 0) AS sales_rows,
			MAX(completed_at) AS last_completed_at
		FROM analysis_runs
		WHERE started_at >= $1
	`

	stats := &RunStats{}
	err := r.db.QueryRowContext(ctx, query, since, StatusFailed).Scan(
		&stats.Runs,
		&stats.Failed,
		&stats.SalesRows,
		&stats.LastCompletedAt,
	)
	if err == sql.ErrNoRows {
		return &RunStats{}, nil
	}

	return stats, err
}
