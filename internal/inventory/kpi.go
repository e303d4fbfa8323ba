package inventory

import (
	"github.com/andresuchdata/replenish/internal/domain"
)

// CalculateKPIs derives the current-state view from sales history and the
// stock snapshot. Store-SKUs without both a stock row and SKU attributes are
// not included in the per-row table.
//
// Fill rate is 100 minus the share of zero-quantity sales rows over the whole
// input. Zero sales is read as a stockout, which cannot be told apart from
// zero demand; the figure is a proxy, not a measured fill rate.
func CalculateKPIs(sales []domain.SalesTransaction, stock []domain.StockLevel, attrs []domain.SKUAttributes, p Params) domain.KPIResult {
	attrIdx := attributeIndex(attrs)
	stockIdx := make(map[domain.StoreSKU]float64, len(stock))
	for _, s := range stock {
		key := domain.StoreSKU{StoreID: s.StoreID, SKUID: s.SKUID}
		if _, seen := stockIdx[key]; !seen {
			stockIdx[key] = s.CurrentStock
		}
	}

	type agg struct {
		total float64
		count int
	}
	byKey := make(map[domain.StoreSKU]*agg)
	zeroRows := 0

	for _, tx := range sales {
		if tx.QuantitySold == 0 {
			zeroRows++
		}
		key := domain.StoreSKU{StoreID: tx.StoreID, SKUID: tx.SKUID}
		if _, ok := attrIdx[tx.SKUID]; !ok {
			continue
		}
		if _, ok := stockIdx[key]; !ok {
			continue
		}
		a := byKey[key]
		if a == nil {
			a = &agg{}
			byKey[key] = a
		}
		a.total += tx.QuantitySold
		a.count++
	}

	result := domain.KPIResult{Records: make([]domain.KPIRecord, 0, len(byKey))}
	turns := make([]domain.NullFloat64, 0, len(byKey))
	supply := make([]domain.NullFloat64, 0, len(byKey))

	for _, key := range sortedKeys(byKey) {
		a := byKey[key]
		unitCost := attrIdx[key.SKUID].UnitCost
		onHand := stockIdx[key]

		rec := domain.KPIRecord{
			StoreID:        key.StoreID,
			SKUID:          key.SKUID,
			TotalSold:      a.total,
			MeanDailySales: a.total / float64(a.count),
			Revenue:        a.total * unitCost,
			CurrentStock:   onHand,
			UnitCost:       unitCost,
			InventoryValue: onHand * unitCost,
		}
		if rec.MeanDailySales > 0 {
			rec.DaysOfSupply = domain.Defined(onHand / rec.MeanDailySales)
		}
		if onHand > 0 && a.total > 0 {
			rec.InventoryTurns = domain.Defined(a.total * p.TurnoverAnnualization / onHand)
		}

		result.Snapshot.TotalInventoryValue += rec.InventoryValue
		turns = append(turns, rec.InventoryTurns)
		supply = append(supply, rec.DaysOfSupply)
		result.Records = append(result.Records, rec)
	}

	if len(sales) > 0 {
		result.Snapshot.FillRate = domain.Defined(100 - float64(zeroRows)/float64(len(sales))*100)
	}
	result.Snapshot.AvgInventoryTurns = meanDefined(turns)
	result.Snapshot.AvgDaysOfSupply = meanDefined(supply)
	result.Snapshot.StockoutEvents = zeroRows

	return result
}
