package inventory

import (
	"sort"

	"github.com/andresuchdata/replenish/internal/domain"
)

// Forecast projects a moving average of the most recent ForecastWindow days
// of each store-SKU over ForecastHorizon days.
func Forecast(sales []domain.SalesTransaction, p Params) []domain.DemandForecast {
	byKey := make(map[domain.StoreSKU][]domain.SalesTransaction)
	for _, tx := range sales {
		key := domain.StoreSKU{StoreID: tx.StoreID, SKUID: tx.SKUID}
		byKey[key] = append(byKey[key], tx)
	}

	out := make([]domain.DemandForecast, 0, len(byKey))
	for _, key := range sortedKeys(byKey) {
		rows := byKey[key]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

		window := rows
		if len(window) > p.ForecastWindow {
			window = window[len(window)-p.ForecastWindow:]
		}

		var sum float64
		for _, r := range window {
			sum += r.QuantitySold
		}
		daily := sum / float64(len(window))

		out = append(out, domain.DemandForecast{
			StoreID:          key.StoreID,
			SKUID:            key.SKUID,
			WindowDays:       len(window),
			DailyForecast:    daily,
			HorizonDays:      p.ForecastHorizon,
			ForecastQuantity: daily * float64(p.ForecastHorizon),
		})
	}
	return out
}
