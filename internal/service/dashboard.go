package service

import (
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/inventory"
	"github.com/andresuchdata/replenish/internal/pipeline"
)

// BuildDashboard derives the current-versus-target view of a run.
//
// Current stockout frequency is the share of sales rows with zero quantity.
// Target stockout frequency is the share of simulated store-SKU days with a
// stockout. Target turnover is annual revenue over the proposed inventory
// value.
func BuildDashboard(res *pipeline.Result) *domain.Dashboard {
	p := res.Params
	snap := res.KPI.Snapshot
	sim := res.Simulation.Summary

	var salesRows int
	var annualRevenue float64
	for _, rec := range res.Demand {
		salesRows += rec.ObservedDays
		annualRevenue += rec.AnnualRevenue.ValueOr(0)
	}

	current := domain.DashboardMetrics{
		FillRate:              snap.FillRate,
		InventoryTurnover:     snap.AvgInventoryTurns,
		HoldingCostPercentage: p.HoldingCostRate * 100,
	}
	if salesRows > 0 {
		current.StockoutFrequency = domain.Defined(float64(snap.StockoutEvents) / float64(salesRows) * 100)
	}

	target := domain.DashboardMetrics{
		FillRate:              domain.Defined(p.TargetFillRate * 100),
		HoldingCostPercentage: p.HoldingCostRate * 100,
	}
	if proposed := inventory.ProposedInventoryValue(res.SKUPolicies); proposed > 0 {
		target.InventoryTurnover = domain.Defined(annualRevenue / proposed)
	}
	if simDays := sim.SKUsSimulated * sim.Days; simDays > 0 {
		target.StockoutFrequency = domain.Defined(float64(sim.TotalStockoutDays) / float64(simDays) * 100)
	}

	d := &domain.Dashboard{
		RunID:           res.RunID,
		GeneratedAt:     res.GeneratedAt,
		Current:         current,
		Target:          target,
		ABCDistribution: make([]domain.ABCDistribution, 0, len(res.ABC.Summary)),
		Simulation:      sim,
		Financial: domain.FinancialImpact{
			ImplementationCost: p.ImplementationCost,
		},
	}
	for _, s := range res.ABC.Summary {
		d.ABCDistribution = append(d.ABCDistribution, domain.ABCDistribution{
			Class:        s.Class,
			Count:        s.SKUCount,
			RevenueShare: s.RevenueShare,
		})
	}
	if cb := res.CostBenefit; cb != nil {
		d.Financial.AnnualSavings = cb.TotalAnnualSavings
		d.Financial.ROIPercent = cb.ROIPercent
		d.Financial.PaybackMonths = cb.PaybackMonths
	}
	return d
}
