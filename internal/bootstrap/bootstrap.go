// Package bootstrap wires the analysis service from configuration.
package bootstrap

import (
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/pipeline"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/repository/postgres"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/andresuchdata/replenish/internal/storage"
)

// App holds the wired service and the optional collaborators behind it.
type App struct {
	Service  *service.AnalysisService
	DB       *postgres.DB
	Datasets *repository.DatasetRepository
}

// Close releases the database pool.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// New builds the analysis service. A database that cannot be reached
// disables persistence instead of failing; cache and storage errors fail.
func New(cfg *config.Config) (*App, error) {
	app := &App{}
	var (
		opts     service.Options
		orchOpts []pipeline.Option
	)

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, results will not be persisted")
	} else {
		app.DB = db
		app.Datasets = repository.NewDatasetRepository(db.DB.DB)
		opts.Repo = postgres.NewResultRepository(db)
		orchOpts = append(orchOpts, pipeline.WithTracker(pipeline.NewRepository(db.DB.DB)))
	}

	if opts.Cache, err = cache.NewAnalysisCache(cfg.Cache); err != nil {
		app.Close()
		return nil, err
	}
	if opts.DashboardCache, err = cache.NewDashboardCache(cfg.Cache); err != nil {
		app.Close()
		return nil, err
	}

	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			app.Close()
			return nil, err
		}
		opts.Storage = client
		opts.StoragePrefix = cfg.Storage.Prefix
	}

	orch := pipeline.NewOrchestrator(cfg.Analysis.Workers, orchOpts...)
	app.Service = service.NewAnalysisService(orch, cfg.Analysis.Params(), opts)
	return app, nil
}
