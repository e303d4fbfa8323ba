package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/pipeline"
)

func TestSummarize(t *testing.T) {
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	res := &pipeline.Result{
		RunID:       "r1",
		InputHash:   "h",
		Seed:        9,
		GeneratedAt: at,
		Demand:      make([]domain.DemandRecord, 3),
		ABC:         domain.ABCResult{Entries: make([]domain.ABCEntry, 2)},
		Simulation:  domain.SimulationResult{Summary: domain.SimulationSummary{AvgFillRate: 97.5}},
	}

	s := Summarize(res)
	assert.Equal(t, "r1", s.RunID)
	assert.Equal(t, 3, s.StoreSKUs)
	assert.Equal(t, 2, s.SKUs)
	assert.Equal(t, 97.5, s.AvgSimulatedFillRate)
	assert.False(t, s.TotalAnnualSavings.Valid)

	res.CostBenefit = &domain.CostBenefit{TotalAnnualSavings: 1200}
	assert.Equal(t, domain.Defined(1200), Summarize(res).TotalAnnualSavings)
}
