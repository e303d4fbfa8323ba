package inventory

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/replenish/internal/domain"
)

// Simulator replays random daily demand against computed policies.
type Simulator struct {
	params   Params
	samplers SamplerFactory
	workers  int
}

// NewSimulator creates a simulator. workers <= 0 uses one worker per CPU.
func NewSimulator(params Params, samplers SamplerFactory, workers int) *Simulator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Simulator{params: params, samplers: samplers, workers: workers}
}

// Run simulates every policy that carries usable quantities over
// SimulationDays. Traces keep the order of the input policies.
func (s *Simulator) Run(ctx context.Context, policies []domain.Policy) (domain.SimulationResult, error) {
	runnable := make([]domain.Policy, 0, len(policies))
	for _, pol := range policies {
		if pol.Status.Simulatable() {
			runnable = append(runnable, pol)
		}
	}

	traces := make([]domain.SimulationTrace, len(runnable))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range runnable {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pol := runnable[i]
			traces[i] = SimulatePolicy(pol, s.samplers(pol.Key()), s.params.SimulationDays)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.SimulationResult{}, err
	}

	summary := Summarize(traces, s.params.SimulationDays)
	summary.Skipped = len(policies) - len(runnable)

	return domain.SimulationResult{Traces: traces, Summary: summary}, nil
}

// SimulatePolicy runs the day loop for one store-SKU. Replenishment is
// instantaneous: once stock falls to the reorder point, EOQ units arrive
// before the next day.
func SimulatePolicy(pol domain.Policy, sampler DemandSampler, days int) domain.SimulationTrace {
	trace := domain.SimulationTrace{
		StoreID:       pol.StoreID,
		SKUID:         pol.SKUID,
		StartingStock: pol.ReorderPoint + 0.5*pol.EOQ,
	}
	stock := trace.StartingStock

	for day := 0; day < days; day++ {
		demand := sampler.Sample(pol.MeanDemand)
		trace.TotalDemand += demand

		if stock >= float64(demand) {
			trace.TotalSales += float64(demand)
			stock -= float64(demand)
		} else {
			trace.TotalSales += stock
			trace.StockoutDays++
			stock = 0
		}

		if stock <= pol.ReorderPoint {
			stock += pol.EOQ
			trace.OrdersPlaced++
		}
	}

	trace.EndingStock = stock
	trace.FillRate = 100
	if trace.TotalDemand > 0 {
		trace.FillRate = trace.TotalSales / float64(trace.TotalDemand) * 100
	}
	return trace
}

// Summarize aggregates traces.
func Summarize(traces []domain.SimulationTrace, days int) domain.SimulationSummary {
	summary := domain.SimulationSummary{Days: days, SKUsSimulated: len(traces)}
	if len(traces) == 0 {
		return summary
	}

	var fill float64
	for _, t := range traces {
		fill += t.FillRate
		summary.TotalStockoutDays += t.StockoutDays
		summary.TotalOrdersPlaced += t.OrdersPlaced
		if t.StockoutDays > 0 {
			summary.SKUsWithStockouts++
		}
		if t.FillRate == 100 {
			summary.PerfectFillRateSKUs++
		}
	}
	summary.AvgFillRate = fill / float64(len(traces))
	return summary
}
