package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/inventory"
	"github.com/andresuchdata/replenish/internal/metrics"
)

// RunTracker persists run lifecycle records. *Repository implements it.
type RunTracker interface {
	CreateRun(ctx context.Context, run *AnalysisRun) error
	UpdateRun(ctx context.Context, run *AnalysisRun) error
}

// Orchestrator runs the engine stages in dependency order. Stages in the same
// group only read the outputs of earlier groups and run concurrently.
type Orchestrator struct {
	workers  int
	tracker  RunTracker
	samplers func(seed int64) inventory.SamplerFactory
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTracker records each run through t.
func WithTracker(t RunTracker) Option {
	return func(o *Orchestrator) { o.tracker = t }
}

// WithSamplers replaces the seeded Poisson samplers.
func WithSamplers(f func(seed int64) inventory.SamplerFactory) Option {
	return func(o *Orchestrator) { o.samplers = f }
}

// NewOrchestrator creates a new Orchestrator. workers bounds the simulation
// pool; zero or less uses one worker per CPU.
func NewOrchestrator(workers int, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		workers:  workers,
		samplers: inventory.SeededSamplers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes a full analysis over in.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Result, error) {
	if err := in.Params.Validate(); err != nil {
		return nil, err
	}
	hash, err := in.Hash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash input: %w", err)
	}

	run := &AnalysisRun{
		RunID:     uuid.NewString(),
		InputHash: hash,
		Seed:      in.Seed,
		Status:    StatusProcessing,
		SalesRows: len(in.Dataset.Sales),
		StartedAt: time.Now().UTC(),
	}
	o.createRun(ctx, run)

	logger := log.With().Str("run_id", run.RunID).Int64("seed", in.Seed).Logger()
	logger.Info().Int("sales_rows", run.SalesRows).Msg("analysis started")

	res, err := o.execute(ctx, run.RunID, in)

	now := time.Now().UTC()
	run.CompletedAt = &now
	if err != nil {
		run.Status = StatusFailed
		run.ErrorMessage = err.Error()
		o.updateRun(ctx, run)
		metrics.RecordRun(string(StatusFailed))
		logger.Error().Err(err).Msg("analysis failed")
		return nil, err
	}

	res.InputHash = hash
	run.Status = StatusCompleted
	run.StoreSKUs = len(res.Demand)
	o.updateRun(ctx, run)
	metrics.RecordRun(string(StatusCompleted))

	logger.Info().
		Int("store_skus", len(res.Demand)).
		Int("skus", len(res.ABC.Entries)).
		Float64("simulated_fill_rate", res.Simulation.Summary.AvgFillRate).
		Dur("elapsed", now.Sub(run.StartedAt)).
		Msg("analysis completed")

	return res, nil
}

func (o *Orchestrator) execute(ctx context.Context, runID string, in Input) (*Result, error) {
	p, ds := in.Params, in.Dataset
	res := &Result{
		RunID:       runID,
		Seed:        in.Seed,
		Params:      p,
		GeneratedAt: time.Now().UTC(),
	}

	// 1. Demand, classification and current-state KPIs are independent.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer observe(StageDemand)()
		res.Demand = inventory.AggregateDemand(ds.Sales, ds.Attributes, p)
		res.Forecast = inventory.Forecast(ds.Sales, p)
		return nil
	})
	g.Go(func() error {
		defer observe(StageABC)()
		res.ABC = inventory.ClassifyABC(ds.Sales, ds.Attributes, p)
		return nil
	})
	g.Go(func() error {
		defer observe(StageKPI)()
		res.KPI = inventory.CalculateKPIs(ds.Sales, ds.Stock, ds.Attributes, p)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Policies need both demand and class.
	done := observe(StagePolicy)
	res.Policies = inventory.NewPolicyCalculator(p).Calculate(res.Demand, res.ABC)
	res.SKUPolicies = inventory.SummarizeBySKU(res.Policies)
	done()

	// 3. Cost-benefit and simulation both consume the policies.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		done := observe(StageCostBenefit)
		cb, err := inventory.AnalyzeCostBenefit(res.SKUPolicies, res.Demand, res.KPI.Snapshot, p)
		done()
		switch {
		case errors.Is(err, inventory.ErrUndefinedFillRate):
			res.Warnings = append(res.Warnings, err.Error())
		case err != nil:
			return fmt.Errorf("cost-benefit: %w", err)
		default:
			res.CostBenefit = &cb
		}

		defer observe(StageWorkingCapital)()
		res.WorkingCapital = inventory.WorkingCapitalImpact(res.SKUPolicies, res.KPI.Snapshot, p)
		return nil
	})
	g.Go(func() error {
		defer observe(StageSimulation)()
		sim, err := o.simulate(gctx, res.Policies, in.Seed, p)
		if err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
		res.Simulation = sim
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}

// Simulate replays demand against already computed policies.
func (o *Orchestrator) Simulate(ctx context.Context, policies []domain.Policy, seed int64, p inventory.Params) (domain.SimulationResult, error) {
	if err := p.Validate(); err != nil {
		return domain.SimulationResult{}, err
	}
	defer observe(StageSimulation)()
	return o.simulate(ctx, policies, seed, p)
}

func (o *Orchestrator) simulate(ctx context.Context, policies []domain.Policy, seed int64, p inventory.Params) (domain.SimulationResult, error) {
	sim, err := inventory.NewSimulator(p, o.samplers(seed), o.workers).Run(ctx, policies)
	if err != nil {
		return domain.SimulationResult{}, err
	}
	sim.Seed = seed
	metrics.SimulatedFillRate.Set(sim.Summary.AvgFillRate)
	return sim, nil
}

func (o *Orchestrator) createRun(ctx context.Context, run *AnalysisRun) {
	if o.tracker == nil {
		return
	}
	if err := o.tracker.CreateRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("run_id", run.RunID).Msg("failed to record analysis run")
	}
}

func (o *Orchestrator) updateRun(ctx context.Context, run *AnalysisRun) {
	if o.tracker == nil || run.ID == 0 {
		return
	}
	if err := o.tracker.UpdateRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("run_id", run.RunID).Msg("failed to update analysis run")
	}
}

func observe(stage string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		metrics.ObserveStage(stage, d)
		log.Debug().Str("stage", stage).Dur("elapsed", d).Msg("stage finished")
	}
}
