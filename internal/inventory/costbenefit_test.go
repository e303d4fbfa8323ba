package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/replenish/internal/domain"
)

func TestAnalyzeCostBenefit(t *testing.T) {
	p := DefaultParams()
	skuPolicies := []domain.SKUPolicy{
		{SKUID: "A", MeanMaxInventory: 100, MaxInventory: 100, UnitCost: 5},
		{SKUID: "B", MeanMaxInventory: 50, MaxInventory: 50, UnitCost: 2},
	}
	demand := []domain.DemandRecord{
		{SKUID: "A", AnnualRevenue: domain.Defined(10000)},
		{SKUID: "M"},
	}
	kpis := domain.KPISnapshot{FillRate: domain.Defined(90), TotalInventoryValue: 1000}

	cb, err := AnalyzeCostBenefit(skuPolicies, demand, kpis, p)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, cb.CurrentInventoryValue)
	assert.Equal(t, 600.0, cb.ProposedInventoryValue)
	assert.Equal(t, 400.0, cb.InventoryReduction)
	assert.Equal(t, 100.0, cb.HoldingCostSavings)
	assert.Equal(t, 10000.0, cb.CurrentAnnualRevenue)
	assert.InDelta(t, 800.0, cb.RevenueUplift, 1e-6)
	assert.InDelta(t, 900.0, cb.TotalAnnualSavings, 1e-6)
	assert.Equal(t, 90.0, cb.CurrentFillRate)
	assert.Equal(t, 98.0, cb.TargetFillRate)
	require.True(t, cb.ROIPercent.Valid)
	assert.InDelta(t, 0.9, cb.ROIPercent.Float64, 1e-9)
	require.True(t, cb.PaybackMonths.Valid)
	assert.InDelta(t, 100000.0/900*12, cb.PaybackMonths.Float64, 1e-6)
}

func TestAnalyzeCostBenefitNegativeFigures(t *testing.T) {
	p := DefaultParams()
	skuPolicies := []domain.SKUPolicy{{SKUID: "A", MeanMaxInventory: 300, UnitCost: 10}}
	demand := []domain.DemandRecord{{SKUID: "A", AnnualRevenue: domain.Defined(5000)}}
	kpis := domain.KPISnapshot{FillRate: domain.Defined(100), TotalInventoryValue: 1000}

	cb, err := AnalyzeCostBenefit(skuPolicies, demand, kpis, p)
	require.NoError(t, err)

	assert.Equal(t, -2000.0, cb.InventoryReduction)
	assert.Equal(t, -500.0, cb.HoldingCostSavings)
	assert.InDelta(t, -100.0, cb.RevenueUplift, 1e-6)
	assert.Less(t, cb.TotalAnnualSavings, 0.0)
	assert.True(t, cb.ROIPercent.Valid)
	assert.False(t, cb.PaybackMonths.Valid)
}

func TestAnalyzeCostBenefitUndefinedInputs(t *testing.T) {
	p := DefaultParams()

	_, err := AnalyzeCostBenefit(nil, nil, domain.KPISnapshot{}, p)
	assert.ErrorIs(t, err, ErrUndefinedFillRate)

	p.ImplementationCost = 0
	cb, err := AnalyzeCostBenefit(nil, nil, domain.KPISnapshot{FillRate: domain.Defined(50)}, p)
	require.NoError(t, err)
	assert.False(t, cb.ROIPercent.Valid)
}

func TestWorkingCapitalImpact(t *testing.T) {
	p := DefaultParams()
	skuPolicies := []domain.SKUPolicy{{SKUID: "A", MeanMaxInventory: 60, UnitCost: 10}}

	wc := WorkingCapitalImpact(skuPolicies, domain.KPISnapshot{TotalInventoryValue: 1000}, p)
	assert.Equal(t, 1000.0, wc.CurrentWorkingCapital)
	assert.Equal(t, 600.0, wc.ProposedWorkingCapital)
	assert.Equal(t, 400.0, wc.Reduction)
	assert.Equal(t, domain.Defined(40), wc.ReductionPercent)
	assert.InDelta(t, 48.0, wc.OpportunitySavings, 1e-9)

	empty := WorkingCapitalImpact(skuPolicies, domain.KPISnapshot{}, p)
	assert.False(t, empty.ReductionPercent.Valid)
	assert.Equal(t, -600.0, empty.Reduction)
}
