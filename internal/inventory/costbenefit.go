package inventory

import (
	"errors"

	"github.com/andresuchdata/replenish/internal/domain"
)

// ErrUndefinedFillRate is returned when the KPI snapshot has no fill rate,
// which happens when the sales history is empty.
var ErrUndefinedFillRate = errors.New("inventory: current fill rate is undefined")

// ProposedInventoryValue sums mean max inventory × unit cost over SKUs.
func ProposedInventoryValue(skuPolicies []domain.SKUPolicy) float64 {
	var total float64
	for _, sp := range skuPolicies {
		total += sp.MeanMaxInventory * sp.UnitCost
	}
	return total
}

// AnalyzeCostBenefit compares the current snapshot with the proposed policy.
// Reductions and uplifts are reported as computed, including negative values.
func AnalyzeCostBenefit(skuPolicies []domain.SKUPolicy, demand []domain.DemandRecord, kpis domain.KPISnapshot, p Params) (domain.CostBenefit, error) {
	if !kpis.FillRate.Valid {
		return domain.CostBenefit{}, ErrUndefinedFillRate
	}

	cb := domain.CostBenefit{
		CurrentInventoryValue:  kpis.TotalInventoryValue,
		ProposedInventoryValue: ProposedInventoryValue(skuPolicies),
		CurrentFillRate:        kpis.FillRate.Float64,
		TargetFillRate:         p.TargetFillRate * 100,
		ImplementationCost:     p.ImplementationCost,
	}

	cb.InventoryReduction = cb.CurrentInventoryValue - cb.ProposedInventoryValue
	cb.HoldingCostSavings = cb.InventoryReduction * p.HoldingCostRate

	for _, rec := range demand {
		cb.CurrentAnnualRevenue += rec.AnnualRevenue.ValueOr(0)
	}
	cb.RevenueUplift = cb.CurrentAnnualRevenue * (p.TargetFillRate - kpis.FillRate.Float64/100)
	cb.TotalAnnualSavings = cb.HoldingCostSavings + cb.RevenueUplift

	if p.ImplementationCost > 0 {
		cb.ROIPercent = domain.Defined(cb.TotalAnnualSavings / p.ImplementationCost * 100)
	}
	if cb.TotalAnnualSavings > 0 {
		cb.PaybackMonths = domain.Defined(p.ImplementationCost / cb.TotalAnnualSavings * 12)
	}

	return cb, nil
}

// WorkingCapitalImpact applies the opportunity-cost rate to the reduction in
// inventory value.
func WorkingCapitalImpact(skuPolicies []domain.SKUPolicy, kpis domain.KPISnapshot, p Params) domain.WorkingCapital {
	wc := domain.WorkingCapital{
		CurrentWorkingCapital:  kpis.TotalInventoryValue,
		ProposedWorkingCapital: ProposedInventoryValue(skuPolicies),
	}
	wc.Reduction = wc.CurrentWorkingCapital - wc.ProposedWorkingCapital
	if wc.CurrentWorkingCapital != 0 {
		wc.ReductionPercent = domain.Defined(wc.Reduction / wc.CurrentWorkingCapital * 100)
	}
	wc.OpportunitySavings = wc.Reduction * p.OpportunityCostRate
	return wc
}
