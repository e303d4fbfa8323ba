package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/replenish/internal/domain"
)

func TestCalculateKPIs(t *testing.T) {
	sales := concat(
		series("S1", "A", 10, 0, 20),
		series("S1", "Z", 0, 0),
		series("S2", "A", 3),
		series("S9", "A", 4),
		series("S1", "GHOST", 2),
	)
	stock := []domain.StockLevel{
		{StoreID: "S1", SKUID: "A", CurrentStock: 30},
		{StoreID: "S1", SKUID: "Z", CurrentStock: 8},
		{StoreID: "S2", SKUID: "A", CurrentStock: 0},
		{StoreID: "S1", SKUID: "GHOST", CurrentStock: 5},
	}
	attrs := []domain.SKUAttributes{attr("A", 2, 1), attr("Z", 5, 1)}

	res := CalculateKPIs(sales, stock, attrs, DefaultParams())
	require.Len(t, res.Records, 3)

	t.Run("regular row", func(t *testing.T) {
		r := res.Records[0]
		assert.Equal(t, "S1/A", domain.StoreSKU{StoreID: r.StoreID, SKUID: r.SKUID}.String())
		assert.Equal(t, 30.0, r.TotalSold)
		assert.Equal(t, 10.0, r.MeanDailySales)
		assert.Equal(t, 60.0, r.Revenue)
		assert.Equal(t, 60.0, r.InventoryValue)
		assert.Equal(t, domain.Defined(3), r.DaysOfSupply)
		assert.Equal(t, domain.Defined(4), r.InventoryTurns)
	})

	t.Run("zero sales yields undefined markers", func(t *testing.T) {
		r := res.Records[1]
		assert.Equal(t, "Z", r.SKUID)
		assert.False(t, r.DaysOfSupply.Valid)
		assert.False(t, r.InventoryTurns.Valid)
		assert.Equal(t, 40.0, r.InventoryValue)
	})

	t.Run("zero stock", func(t *testing.T) {
		r := res.Records[2]
		assert.Equal(t, "S2", r.StoreID)
		assert.Equal(t, domain.Defined(0), r.DaysOfSupply)
		assert.False(t, r.InventoryTurns.Valid)
	})

	t.Run("snapshot", func(t *testing.T) {
		s := res.Snapshot
		// 3 zero rows out of 8.
		require.True(t, s.FillRate.Valid)
		assert.InDelta(t, 62.5, s.FillRate.Float64, 1e-9)
		assert.Equal(t, 3, s.StockoutEvents)
		assert.Equal(t, 100.0, s.TotalInventoryValue)
		assert.Equal(t, domain.Defined(4), s.AvgInventoryTurns)
		assert.Equal(t, domain.Defined(1.5), s.AvgDaysOfSupply)
	})
}

func TestCalculateKPIsEmpty(t *testing.T) {
	res := CalculateKPIs(nil, nil, nil, DefaultParams())

	assert.Empty(t, res.Records)
	assert.False(t, res.Snapshot.FillRate.Valid)
	assert.False(t, res.Snapshot.AvgInventoryTurns.Valid)
	assert.False(t, res.Snapshot.AvgDaysOfSupply.Valid)
}

func TestCalculateKPIsTurnoverMultiplier(t *testing.T) {
	p := DefaultParams()
	p.TurnoverAnnualization = 12
	res := CalculateKPIs(
		series("S1", "A", 5, 5),
		[]domain.StockLevel{{StoreID: "S1", SKUID: "A", CurrentStock: 20}},
		[]domain.SKUAttributes{attr("A", 1, 1)},
		p,
	)
	require.Len(t, res.Records, 1)
	assert.Equal(t, domain.Defined(6), res.Records[0].InventoryTurns)
}
