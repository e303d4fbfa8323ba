package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/export"
	"github.com/andresuchdata/replenish/internal/ingest"
	"github.com/andresuchdata/replenish/internal/inventory"
	"github.com/andresuchdata/replenish/internal/pipeline"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/storage"
)

// WorkbookName is the object name of an exported run.
const WorkbookName = "results.xlsx"

var (
	// ErrNotFound is returned when a run is neither cached nor stored.
	ErrNotFound = errors.New("analysis run not found")
	// ErrPersistenceDisabled is returned by listings without a repository.
	ErrPersistenceDisabled = errors.New("result persistence is not configured")
	// ErrNoPolicies is returned by Simulate when there is nothing to replay.
	ErrNoPolicies = errors.New("no policies to simulate")
)

// Options wires optional collaborators. Nil fields disable the feature.
type Options struct {
	Repo           repository.ResultRepository
	Cache          cache.AnalysisCache
	DashboardCache cache.DashboardCache
	Storage        storage.ObjectStorage
	StoragePrefix  string
}

type AnalysisService struct {
	orch       *pipeline.Orchestrator
	params     inventory.Params
	repo       repository.ResultRepository
	cache      cache.AnalysisCache
	dashboards cache.DashboardCache
	storage    storage.ObjectStorage
	prefix     string
	now        func() time.Time
}

func NewAnalysisService(orch *pipeline.Orchestrator, params inventory.Params, opts Options) *AnalysisService {
	if opts.Cache == nil {
		opts.Cache = cache.NewNoopAnalysisCache()
	}
	if opts.DashboardCache == nil {
		opts.DashboardCache = cache.NewNoopDashboardCache()
	}
	return &AnalysisService{
		orch:       orch,
		params:     params,
		repo:       opts.Repo,
		cache:      opts.Cache,
		dashboards: opts.DashboardCache,
		storage:    opts.Storage,
		prefix:     opts.StoragePrefix,
		now:        time.Now,
	}
}

// Params returns a copy of the default analysis parameters.
func (s *AnalysisService) Params() inventory.Params {
	p := s.params
	p.ServiceLevels = maps.Clone(s.params.ServiceLevels)
	return p
}

// ResolveSeed returns seed, or a time-based seed when seed is zero.
func ResolveSeed(seed int64, now time.Time) int64 {
	if seed != 0 {
		return seed
	}
	return now.UnixNano()
}

// AnalyzeRequest is one analysis over a cleaned dataset. Params overrides the
// service defaults when set.
type AnalyzeRequest struct {
	Dataset ingest.Dataset
	Seed    int64
	Params  *inventory.Params
}

// Analyze runs the engine, or returns the cached result of an identical
// request. cached reports which one happened.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (res *pipeline.Result, cached bool, err error) {
	in := pipeline.Input{
		Dataset: req.Dataset,
		Params:  s.params,
		Seed:    ResolveSeed(req.Seed, s.now()),
	}
	if req.Params != nil {
		in.Params = *req.Params
	}

	hash, err := in.Hash()
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash input: %w", err)
	}

	// A random seed never repeats, so only seeded requests can hit.
	if req.Seed != 0 {
		if hit, ok, err := s.cache.GetByHash(ctx, hash); err == nil && ok {
			return hit, true, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("analysis: cache get failed")
		}
	}

	res, err = s.orch.Run(ctx, in)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.Set(ctx, res); err != nil {
		log.Warn().Err(err).Str("run_id", res.RunID).Msg("analysis: cache set failed")
	}

	if s.repo != nil {
		if err := s.repo.SaveResult(ctx, res); err != nil {
			return nil, false, fmt.Errorf("failed to save result: %w", err)
		}
	}

	if s.storage != nil {
		if err := s.upload(ctx, res); err != nil {
			log.Warn().Err(err).Str("run_id", res.RunID).Msg("analysis: upload failed")
		}
	}

	return res, false, nil
}

func (s *AnalysisService) upload(ctx context.Context, res *pipeline.Result) error {
	data, err := export.WorkbookBytes(export.Tables(res))
	if err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}
	key := storage.ResultKey(s.prefix, res.RunID, WorkbookName)
	if err := s.storage.UploadObject(ctx, key, data); err != nil {
		return err
	}
	log.Info().Str("run_id", res.RunID).Str("key", key).Int("bytes", len(data)).Msg("analysis: workbook uploaded")
	return nil
}

// GetResult looks a run up in the cache, then in the repository.
func (s *AnalysisService) GetResult(ctx context.Context, runID string) (*pipeline.Result, error) {
	if res, ok, err := s.cache.GetByRunID(ctx, runID); err == nil && ok {
		return res, nil
	} else if err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("analysis: cache get failed")
	}

	if s.repo == nil {
		return nil, ErrNotFound
	}
	res, err := s.repo.GetResult(ctx, runID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, res); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("analysis: cache set failed")
	}
	return res, nil
}

// ListRuns lists stored runs, newest first.
func (s *AnalysisService) ListRuns(ctx context.Context, limit, offset int) ([]repository.RunSummary, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.ListRuns(ctx, limit, offset)
}

// GetPolicies returns the filtered policy table of a run.
func (s *AnalysisService) GetPolicies(ctx context.Context, runID string, filter *repository.PolicyFilter) ([]domain.Policy, error) {
	if s.repo != nil {
		policies, err := s.repo.GetPolicies(ctx, runID, filter)
		if err != nil {
			return nil, err
		}
		if len(policies) > 0 {
			return policies, nil
		}
	}

	res, err := s.GetResult(ctx, runID)
	if err != nil {
		return nil, err
	}
	return FilterPolicies(res.Policies, filter), nil
}

// FilterPolicies applies filter in memory.
func FilterPolicies(policies []domain.Policy, filter *repository.PolicyFilter) []domain.Policy {
	if filter == nil {
		return policies
	}
	out := make([]domain.Policy, 0, len(policies))
	for _, p := range policies {
		if len(filter.Classes) > 0 && !slices.Contains(filter.Classes, p.Class) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, p.Status) {
			continue
		}
		if len(filter.StoreIDs) > 0 && !slices.Contains(filter.StoreIDs, p.StoreID) {
			continue
		}
		if len(filter.SKUIDs) > 0 && !slices.Contains(filter.SKUIDs, p.SKUID) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SimulateRequest replays demand against the policies of RunID, or against
// Policies when RunID is empty. Days overrides the horizon when positive.
type SimulateRequest struct {
	RunID    string
	Policies []domain.Policy
	Seed     int64
	Days     int
}

func (s *AnalysisService) Simulate(ctx context.Context, req SimulateRequest) (domain.SimulationResult, error) {
	params := s.params
	policies := req.Policies

	if req.RunID != "" {
		res, err := s.GetResult(ctx, req.RunID)
		if err != nil {
			return domain.SimulationResult{}, err
		}
		params = res.Params
		policies = res.Policies
	} else {
		// Caller-built policies often omit the status.
		policies = make([]domain.Policy, len(req.Policies))
		for i, pol := range req.Policies {
			if pol.Status == "" {
				pol.Status = domain.PolicyOK
			}
			policies[i] = pol
		}
	}
	if !slices.ContainsFunc(policies, func(p domain.Policy) bool { return p.Status.Simulatable() }) {
		return domain.SimulationResult{}, ErrNoPolicies
	}
	if req.Days > 0 {
		params.SimulationDays = req.Days
	}

	return s.orch.Simulate(ctx, policies, ResolveSeed(req.Seed, s.now()), params)
}

// Dashboard returns the executive summary of a run.
func (s *AnalysisService) Dashboard(ctx context.Context, runID string) (*domain.Dashboard, error) {
	if d, ok, err := s.dashboards.GetDashboard(ctx, runID); err == nil && ok {
		return d, nil
	} else if err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("dashboard: cache get failed")
	}

	res, err := s.GetResult(ctx, runID)
	if err != nil {
		return nil, err
	}
	d := BuildDashboard(res)

	if err := s.dashboards.SetDashboard(ctx, d); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("dashboard: cache set failed")
	}
	return d, nil
}

// Workbook renders a stored run as an xlsx document.
func (s *AnalysisService) Workbook(ctx context.Context, runID string) ([]byte, error) {
	res, err := s.GetResult(ctx, runID)
	if err != nil {
		return nil, err
	}
	return export.WorkbookBytes(export.Tables(res))
}
