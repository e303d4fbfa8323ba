package inventory

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/replenish/internal/domain"
)

func demandRecord(store, sku string, mean, std, cost, lead float64) domain.DemandRecord {
	return domain.DemandRecord{
		StoreID:       store,
		SKUID:         sku,
		MeanDemand:    mean,
		StdDemand:     std,
		AnnualDemand:  mean * DaysPerYear,
		HasAttributes: true,
		UnitCost:      domain.Defined(cost),
		AvgLeadTime:   domain.Defined(lead),
		ShelfLifeDays: domain.Defined(30),
		AnnualRevenue: domain.Defined(mean * DaysPerYear * cost),
	}
}

func classified(entries ...domain.ABCEntry) domain.ABCResult {
	return domain.ABCResult{Entries: entries}
}

func entry(sku string, class domain.ABCClass) domain.ABCEntry {
	return domain.ABCEntry{SKUID: sku, Class: class, TargetServiceLevel: DefaultParams().ServiceLevel(class)}
}

func TestZScore(t *testing.T) {
	tests := []struct {
		name  string
		level float64
		want  float64
	}{
		{"median", 0.5, 0},
		{"class A", 0.98, 2.0537489},
		{"class B", 0.95, 1.6448536},
		{"class C", 0.90, 1.2815516},
		{"certain", 1.0, 2.33},
		{"above one", 1.2, 2.33},
		{"zero", 0, -2.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ZScore(tt.level, 2.33), 1e-6)
		})
	}
}

func TestPolicyCalculator_Calculate(t *testing.T) {
	calc := NewPolicyCalculator(DefaultParams())
	policies := calc.Calculate(
		[]domain.DemandRecord{demandRecord("S1", "A", 10, 3, 10, 4)},
		classified(entry("A", domain.ClassA)),
	)
	require.Len(t, policies, 1)
	p := policies[0]

	assert.Equal(t, domain.PolicyOK, p.Status)
	assert.Equal(t, domain.ClassA, p.Class)
	assert.Equal(t, 2.5, p.HoldingCostPerUnit)
	assert.Equal(t, 382.0, p.EOQ)
	assert.InDelta(t, 2.0537489, p.ZScore, 1e-6)
	assert.InDelta(t, 6.0, p.LeadTimeStd, 1e-12)
	assert.Equal(t, 12.0, p.SafetyStock)
	assert.Equal(t, 40.0, p.LeadTimeDemand)
	assert.Equal(t, 52.0, p.ReorderPoint)
	assert.Equal(t, 394.0, p.MaxInventory)
	assert.Equal(t, p.EOQ+p.SafetyStock, p.MaxInventory)

	require.True(t, p.AnnualOrderingCost.Valid)
	assert.InDelta(t, 3650.0/382*50, p.AnnualOrderingCost.Float64, 1e-9)
	assert.InDelta(t, 507.5, p.AnnualHoldingCost.Float64, 1e-9)
	require.True(t, p.TotalAnnualCost.Valid)
	assert.InDelta(t, 3650.0/382*50+507.5, p.TotalAnnualCost.Float64, 1e-9)
}

func TestPolicyCalculator_EOQScalesWithSqrtDemand(t *testing.T) {
	calc := NewPolicyCalculator(DefaultParams())
	abc := classified(entry("A", domain.ClassB))

	for _, mean := range []float64{10, 25, 80, 300} {
		base := calc.Calculate([]domain.DemandRecord{demandRecord("S1", "A", mean, 1, 10, 2)}, abc)[0]
		doubled := calc.Calculate([]domain.DemandRecord{demandRecord("S1", "A", 2*mean, 1, 10, 2)}, abc)[0]

		require.Greater(t, base.EOQ, 0.0)
		// Rounding to whole units bounds the error by one unit on each side.
		assert.InDelta(t, math.Sqrt2*base.EOQ, doubled.EOQ, math.Sqrt2*0.5+0.5, "mean=%v", mean)
	}
}

func TestPolicyCalculator_SafetyStockNeverNegative(t *testing.T) {
	params := DefaultParams()
	params.ServiceLevels = map[domain.ABCClass]float64{domain.ClassA: 0.3, domain.ClassB: 0, domain.ClassC: 0.999}
	calc := NewPolicyCalculator(params)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		class := domain.ABCClasses[i%3]
		rec := demandRecord("S1", "A", rng.Float64()*50, rng.Float64()*40, rng.Float64()*20, 1+rng.Float64()*30)
		abc := classified(domain.ABCEntry{SKUID: "A", Class: class, TargetServiceLevel: params.ServiceLevel(class)})

		pol := calc.Calculate([]domain.DemandRecord{rec}, abc)[0]
		assert.GreaterOrEqual(t, pol.SafetyStock, 0.0)
		assert.GreaterOrEqual(t, pol.ReorderPoint, 0.0)
		assert.GreaterOrEqual(t, pol.EOQ, 0.0)
		assert.False(t, math.IsNaN(pol.SafetyStock))
	}
}

func TestPolicyCalculator_QuantitiesStayFinite(t *testing.T) {
	calc := NewPolicyCalculator(DefaultParams())

	tests := []struct {
		name string
		rec  domain.DemandRecord
	}{
		{"negative demand", demandRecord("S1", "A", -3, 1, 10, 2)},
		{"nan demand", demandRecord("S1", "A", math.NaN(), math.NaN(), 10, 2)},
		{"infinite std", demandRecord("S1", "A", 4, math.Inf(1), 10, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol := calc.Calculate([]domain.DemandRecord{tt.rec}, classified(entry("A", domain.ClassA)))[0]
			for name, v := range map[string]float64{
				"eoq":           pol.EOQ,
				"safety_stock":  pol.SafetyStock,
				"reorder_point": pol.ReorderPoint,
				"max_inventory": pol.MaxInventory,
			} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), name)
				assert.GreaterOrEqual(t, v, 0.0, name)
			}
		})
	}
}

func TestPolicyCalculator_Fallbacks(t *testing.T) {
	calc := NewPolicyCalculator(DefaultParams())

	t.Run("zero unit cost", func(t *testing.T) {
		pol := calc.Calculate(
			[]domain.DemandRecord{demandRecord("S1", "F", 4, 1, 0, 2)},
			classified(entry("F", domain.ClassC)),
		)[0]

		assert.Equal(t, domain.PolicyZeroHoldingCost, pol.Status)
		assert.Equal(t, 0.0, pol.EOQ)
		assert.False(t, pol.AnnualOrderingCost.Valid)
		assert.False(t, pol.TotalAnnualCost.Valid)
		assert.True(t, pol.AnnualHoldingCost.Valid)
		assert.Equal(t, pol.SafetyStock, pol.MaxInventory)
	})

	t.Run("zero cost and zero demand", func(t *testing.T) {
		pol := calc.Calculate(
			[]domain.DemandRecord{demandRecord("S1", "F", 0, 0, 0, 2)},
			classified(entry("F", domain.ClassC)),
		)[0]

		assert.Equal(t, domain.Defined(0), pol.AnnualOrderingCost)
		assert.Equal(t, domain.Defined(0), pol.TotalAnnualCost)
	})

	t.Run("missing attributes", func(t *testing.T) {
		rec := domain.DemandRecord{StoreID: "S1", SKUID: "M", MeanDemand: 3, AnnualDemand: 1095}
		pol := calc.Calculate([]domain.DemandRecord{rec}, classified())[0]

		assert.Equal(t, domain.PolicyMissingAttributes, pol.Status)
		assert.Equal(t, 0.0, pol.EOQ)
		assert.False(t, pol.TotalAnnualCost.Valid)
	})

	t.Run("unclassified", func(t *testing.T) {
		pol := calc.Calculate(
			[]domain.DemandRecord{demandRecord("S1", "U", 3, 1, 5, 2)},
			classified(entry("OTHER", domain.ClassA)),
		)[0]

		assert.Equal(t, domain.PolicyUnclassified, pol.Status)
		assert.Equal(t, 5.0, pol.UnitCost)
		assert.False(t, pol.TotalAnnualCost.Valid)
	})
}

func TestPolicyCalculator_Idempotent(t *testing.T) {
	calc := NewPolicyCalculator(DefaultParams())
	demand := []domain.DemandRecord{
		demandRecord("S1", "A", 10, 3, 10, 4),
		demandRecord("S2", "A", 7, 2, 10, 4),
		demandRecord("S1", "B", 1, 0.5, 3, 7),
	}
	abc := classified(entry("A", domain.ClassA), entry("B", domain.ClassC))

	first := calc.Calculate(demand, abc)
	second := calc.Calculate(demand, abc)
	assert.Equal(t, first, second)
	assert.Equal(t, SummarizeBySKU(first), SummarizeBySKU(second))
}

func TestSummarizeBySKU(t *testing.T) {
	policies := []domain.Policy{
		{StoreID: "S2", SKUID: "A", Class: domain.ClassA, UnitCost: 4, EOQ: 20, SafetyStock: 3, ReorderPoint: 9, MaxInventory: 23,
			TotalAnnualCost: domain.Defined(100), Status: domain.PolicyOK},
		{StoreID: "S1", SKUID: "A", Class: domain.ClassA, UnitCost: 4, EOQ: 10, SafetyStock: 2, ReorderPoint: 6, MaxInventory: 12,
			TotalAnnualCost: domain.Defined(50), Status: domain.PolicyOK},
		{StoreID: "S1", SKUID: "B", Class: domain.ClassC, UnitCost: 0, SafetyStock: 1, MaxInventory: 1,
			Status: domain.PolicyZeroHoldingCost},
		{StoreID: "S1", SKUID: "M", Status: domain.PolicyMissingAttributes},
	}

	out := SummarizeBySKU(policies)
	require.Len(t, out, 2)

	a := out[0]
	assert.Equal(t, "A", a.SKUID)
	assert.Equal(t, 2, a.Stores)
	assert.Equal(t, "S1", a.RepresentativeStore)
	assert.Equal(t, 15.0, a.EOQ)
	assert.Equal(t, 2.0, a.SafetyStock) // 2.5 rounds half to even
	assert.Equal(t, 8.0, a.ReorderPoint) // 7.5 rounds half to even
	assert.Equal(t, 18.0, a.MaxInventory)
	assert.Equal(t, 17.5, a.MeanMaxInventory)
	assert.Equal(t, 150.0, a.TotalAnnualCost)
	assert.Equal(t, 72.0, a.InvestmentRequired)

	b := out[1]
	assert.Equal(t, "B", b.SKUID)
	assert.Equal(t, 1, b.UndefinedCostStores)
	assert.Equal(t, 0.0, b.TotalAnnualCost)
}
