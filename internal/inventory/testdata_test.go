package inventory

import (
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// series builds one sales row per quantity on consecutive days.
func series(store, sku string, qty ...float64) []domain.SalesTransaction {
	out := make([]domain.SalesTransaction, len(qty))
	for i, q := range qty {
		out[i] = domain.SalesTransaction{
			StoreID:      store,
			SKUID:        sku,
			Date:         day0.AddDate(0, 0, i),
			QuantitySold: q,
		}
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func attr(sku string, cost, lead float64) domain.SKUAttributes {
	return domain.SKUAttributes{SKUID: sku, UnitCost: cost, AvgLeadTime: lead, ShelfLifeDays: 30}
}

func concat(parts ...[]domain.SalesTransaction) []domain.SalesTransaction {
	var out []domain.SalesTransaction
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
