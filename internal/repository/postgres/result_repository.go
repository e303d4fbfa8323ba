package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/pipeline"
	"github.com/andresuchdata/replenish/internal/repository"
)

const insertBatchSize = 500

type resultRepository struct {
	db *DB
}

func NewResultRepository(db *DB) *resultRepository {
	return &resultRepository{db: db}
}

var _ repository.ResultRepository = (*resultRepository)(nil)

type policyRow struct {
	RunID string `db:"run_id"`
	domain.Policy
}

type abcRow struct {
	RunID string `db:"run_id"`
	domain.ABCEntry
}

const policyColumns = `store_id, sku_id, abc_class, target_service_level, mean_demand, annual_demand,
	unit_cost, avg_lead_time, holding_cost_per_unit, eoq, z_score, lead_time_std, safety_stock,
	lead_time_demand, reorder_point, max_inventory, annual_ordering_cost, annual_holding_cost,
	total_annual_cost, status`

func (r *resultRepository) SaveResult(ctx context.Context, res *pipeline.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	summary := repository.Summarize(res)

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// 1. Run header and full payload
		query := `
			INSERT INTO analysis_results (
				run_id, input_hash, seed, generated_at, store_skus, skus,
				avg_simulated_fill_rate, total_annual_savings, payload
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (run_id)
			DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
		`
		_, err := tx.ExecContext(ctx, query,
			summary.RunID, summary.InputHash, summary.Seed, summary.GeneratedAt,
			summary.StoreSKUs, summary.SKUs, summary.AvgSimulatedFillRate,
			summary.TotalAnnualSavings, payload,
		)
		if err != nil {
			return fmt.Errorf("failed to save result header: %w", err)
		}

		// 2. Flattened policies for filtered reads
		if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_policies WHERE run_id = $1`, res.RunID); err != nil {
			return fmt.Errorf("failed to clear policies: %w", err)
		}
		rows := make([]policyRow, len(res.Policies))
		for i, p := range res.Policies {
			rows[i] = policyRow{RunID: res.RunID, Policy: p}
		}
		policyInsert := `INSERT INTO analysis_policies (run_id, ` + policyColumns + `) VALUES (
			:run_id, :store_id, :sku_id, :abc_class, :target_service_level, :mean_demand, :annual_demand,
			:unit_cost, :avg_lead_time, :holding_cost_per_unit, :eoq, :z_score, :lead_time_std, :safety_stock,
			:lead_time_demand, :reorder_point, :max_inventory, :annual_ordering_cost, :annual_holding_cost,
			:total_annual_cost, :status)`
		for start := 0; start < len(rows); start += insertBatchSize {
			end := min(start+insertBatchSize, len(rows))
			if _, err := tx.NamedExecContext(ctx, policyInsert, rows[start:end]); err != nil {
				return fmt.Errorf("failed to insert policies: %w", err)
			}
		}

		// 3. Classification
		if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_abc WHERE run_id = $1`, res.RunID); err != nil {
			return fmt.Errorf("failed to clear classification: %w", err)
		}
		entries := make([]abcRow, len(res.ABC.Entries))
		for i, e := range res.ABC.Entries {
			entries[i] = abcRow{RunID: res.RunID, ABCEntry: e}
		}
		abcInsert := `INSERT INTO analysis_abc (
			run_id, rank, sku_id, quantity_sold, revenue, revenue_percentage,
			cumulative_percentage, abc_class, target_service_level
		) VALUES (
			:run_id, :rank, :sku_id, :quantity_sold, :revenue, :revenue_percentage,
			:cumulative_percentage, :abc_class, :target_service_level)`
		for start := 0; start < len(entries); start += insertBatchSize {
			end := min(start+insertBatchSize, len(entries))
			if _, err := tx.NamedExecContext(ctx, abcInsert, entries[start:end]); err != nil {
				return fmt.Errorf("failed to insert classification: %w", err)
			}
		}

		return nil
	})
}

func (r *resultRepository) GetResult(ctx context.Context, runID string) (*pipeline.Result, error) {
	var payload []byte
	err := r.db.GetContext(ctx, &payload, `SELECT payload FROM analysis_results WHERE run_id = $1`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result %s: %w", runID, err)
	}

	var res pipeline.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("failed to decode result %s: %w", runID, err)
	}
	return &res, nil
}

func (r *resultRepository) ListRuns(ctx context.Context, limit, offset int) ([]repository.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT run_id, input_hash, seed, generated_at, store_skus, skus,
		       avg_simulated_fill_rate, total_annual_savings
		FROM analysis_results
		ORDER BY generated_at DESC
		LIMIT $1 OFFSET $2
	`
	var runs []repository.RunSummary
	if err := r.db.SelectContext(ctx, &runs, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (r *resultRepository) GetPolicies(ctx context.Context, runID string, filter *repository.PolicyFilter) ([]domain.Policy, error) {
	clause, args := buildPolicyFilterClause(filter, "p", 2)
	query := `SELECT ` + policyColumns + `
		FROM analysis_policies p
		WHERE p.run_id = $1` + clause + `
		ORDER BY p.store_id, p.sku_id`

	var policies []domain.Policy
	if err := r.db.SelectContext(ctx, &policies, query, append([]interface{}{runID}, args...)...); err != nil {
		return nil, fmt.Errorf("failed to get policies for %s: %w", runID, err)
	}
	return policies, nil
}
