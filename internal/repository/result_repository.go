// internal/repository/result_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/pipeline"
)

// ErrNotFound is returned when a run has no stored result.
var ErrNotFound = errors.New("repository: not found")

// RunSummary is the listing view of a stored analysis run.
type RunSummary struct {
	RunID                string             `json:"run_id" db:"run_id"`
	InputHash            string             `json:"input_hash" db:"input_hash"`
	Seed                 int64              `json:"seed" db:"seed"`
	GeneratedAt          time.Time          `json:"generated_at" db:"generated_at"`
	StoreSKUs            int                `json:"store_skus" db:"store_skus"`
	SKUs                 int                `json:"skus" db:"skus"`
	AvgSimulatedFillRate float64            `json:"avg_simulated_fill_rate" db:"avg_simulated_fill_rate"`
	TotalAnnualSavings   domain.NullFloat64 `json:"total_annual_savings" db:"total_annual_savings"`
}

// PolicyFilter narrows a policy listing. Empty fields do not filter.
type PolicyFilter struct {
	Classes  []domain.ABCClass     `form:"class"`
	Statuses []domain.PolicyStatus `form:"status"`
	StoreIDs []string              `form:"store_id"`
	SKUIDs   []string              `form:"sku_id"`
}

type ResultRepository interface {
	SaveResult(ctx context.Context, res *pipeline.Result) error
	GetResult(ctx context.Context, runID string) (*pipeline.Result, error)
	ListRuns(ctx context.Context, limit, offset int) ([]RunSummary, error)
	GetPolicies(ctx context.Context, runID string, filter *PolicyFilter) ([]domain.Policy, error)
}

// Summarize builds the listing view of a result.
func Summarize(res *pipeline.Result) RunSummary {
	s := RunSummary{
		RunID:                res.RunID,
		InputHash:            res.InputHash,
		Seed:                 res.Seed,
		GeneratedAt:          res.GeneratedAt,
		StoreSKUs:            len(res.Demand),
		SKUs:                 len(res.ABC.Entries),
		AvgSimulatedFillRate: res.Simulation.Summary.AvgFillRate,
	}
	if res.CostBenefit != nil {
		s.TotalAnnualSavings = domain.Defined(res.CostBenefit.TotalAnnualSavings)
	}
	return s
}
