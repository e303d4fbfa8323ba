package inventory

import (
	"math"

	"github.com/andresuchdata/replenish/internal/domain"
)

// ClassifyPattern buckets a coefficient of variation.
func ClassifyPattern(cv float64) domain.DemandPattern {
	switch {
	case cv <= 0.5:
		return domain.PatternStable
	case cv <= 1.0:
		return domain.PatternModerate
	default:
		return domain.PatternHighlyVariable
	}
}

// AggregateDemand groups sales by store-SKU and derives demand statistics,
// joined with SKU attributes. SKUs absent from attrs keep their row with
// undefined attribute fields. Records are ordered by store then SKU.
func AggregateDemand(sales []domain.SalesTransaction, attrs []domain.SKUAttributes, p Params) []domain.DemandRecord {
	byKey := make(map[domain.StoreSKU][]float64)
	for _, tx := range sales {
		key := domain.StoreSKU{StoreID: tx.StoreID, SKUID: tx.SKUID}
		byKey[key] = append(byKey[key], tx.QuantitySold)
	}

	attrIdx := attributeIndex(attrs)
	records := make([]domain.DemandRecord, 0, len(byKey))

	for _, key := range sortedKeys(byKey) {
		qty := byKey[key]
		mean, std := meanStd(qty)

		minQ, maxQ := math.Inf(1), math.Inf(-1)
		var total float64
		for _, q := range qty {
			total += q
			minQ = math.Min(minQ, q)
			maxQ = math.Max(maxQ, q)
		}

		rec := domain.DemandRecord{
			StoreID:      key.StoreID,
			SKUID:        key.SKUID,
			MeanDemand:   roundFloat(mean, p.StatPrecision),
			StdDemand:    roundFloat(std, p.StatPrecision),
			TotalDemand:  roundFloat(total, p.StatPrecision),
			ObservedDays: len(qty),
			MinDemand:    roundFloat(minQ, p.StatPrecision),
			MaxDemand:    roundFloat(maxQ, p.StatPrecision),
		}

		// CV is derived from the rounded statistics; zero mean means no variability signal.
		if rec.MeanDemand > 0 {
			rec.CV = rec.StdDemand / rec.MeanDemand
		}
		rec.Pattern = ClassifyPattern(rec.CV)
		rec.AnnualDemand = rec.MeanDemand * DaysPerYear

		if a, ok := attrIdx[key.SKUID]; ok {
			rec.HasAttributes = true
			rec.UnitCost = domain.Defined(a.UnitCost)
			rec.AvgLeadTime = domain.Defined(a.AvgLeadTime)
			rec.ShelfLifeDays = domain.Defined(a.ShelfLifeDays)
			rec.AnnualRevenue = domain.Defined(rec.AnnualDemand * a.UnitCost)
		}

		records = append(records, rec)
	}

	return records
}
