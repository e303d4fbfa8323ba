package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/drive"
	"github.com/andresuchdata/replenish/internal/export"
	"github.com/andresuchdata/replenish/internal/ingest"
	"github.com/andresuchdata/replenish/internal/inventory"
	"github.com/andresuchdata/replenish/internal/pipeline"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/andresuchdata/replenish/pkg/logger"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
	formatBoth = "both"

	workbookFile = "inventory_analysis_results.xlsx"
)

func parseFormat(s string) (csv, xlsx bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case formatCSV:
		return true, false, nil
	case formatXLSX:
		return false, true, nil
	case formatBoth, "":
		return true, true, nil
	}
	return false, false, fmt.Errorf("unknown format %q (want csv, xlsx or both)", s)
}

func loadParams() inventory.Params {
	return config.Load().Analysis.Params()
}

func newOrchestrator(c *cli.Context, st *stores) *pipeline.Orchestrator {
	var opts []pipeline.Option
	if st != nil {
		opts = append(opts, pipeline.WithTracker(st.runs))
	}
	return pipeline.NewOrchestrator(c.Int("workers"), opts...)
}

func loadInput(path string) (ingest.Dataset, error) {
	ds, report, err := ingest.Load(path)
	if err != nil {
		return ingest.Dataset{}, err
	}
	logger.Log.Info().
		Str("input", path).
		Int("sales_rows", len(ds.Sales)).
		Int("stock_rows", len(ds.Stock)).
		Int("skus", len(ds.Attributes)).
		Int("dropped_rows", report.Dropped()).
		Int("issues", len(report.Issues)).
		Msg("input loaded")
	return ds, nil
}

// writeOutputs writes the result tables of res into dir.
func writeOutputs(res *pipeline.Result, dir, format string) ([]string, error) {
	wantCSV, wantXLSX, err := parseFormat(format)
	if err != nil {
		return nil, err
	}

	tables := export.Tables(res)
	var written []string

	if wantCSV {
		paths, err := export.WriteCSVTables(dir, tables)
		if err != nil {
			return nil, err
		}
		written = append(written, paths...)
	}

	if wantXLSX {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(dir, workbookFile)
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := export.WriteWorkbook(f, tables); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		written = append(written, path)
	}

	return written, nil
}

func logResult(res *pipeline.Result) {
	event := logger.Log.Info().
		Str("run_id", res.RunID).
		Int64("seed", res.Seed).
		Int("store_skus", len(res.Demand)).
		Int("policies", len(res.Policies)).
		Float64("simulated_fill_rate", res.Simulation.Summary.AvgFillRate)
	if cb := res.CostBenefit; cb != nil {
		event = event.
			Float64("annual_savings", cb.TotalAnnualSavings).
			Interface("roi_percent", cb.ROIPercent)
	}
	event.Msg("analysis complete")

	for _, w := range res.Warnings {
		logger.Log.Warn().Str("run_id", res.RunID).Msg(w)
	}
}

func runAnalysis(c *cli.Context) error {
	ds, err := loadInput(c.String("input"))
	if err != nil {
		return err
	}

	st := storesFrom(c)
	in := pipeline.Input{
		Dataset: ds,
		Params:  loadParams(),
		Seed:    service.ResolveSeed(c.Int64("seed"), time.Now()),
	}

	res, err := newOrchestrator(c, st).Run(c.Context, in)
	if err != nil {
		return err
	}
	logResult(res)

	if st != nil {
		if err := st.results.SaveResult(c.Context, res); err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
	}

	paths, err := writeOutputs(res, c.String("output-dir"), c.String("format"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		logger.Log.Info().Str("path", p).Msg("wrote")
	}
	return nil
}

func runSimulate(c *cli.Context) error {
	ds, err := loadInput(c.String("input"))
	if err != nil {
		return err
	}

	p := loadParams()
	if days := c.Int("days"); days > 0 {
		p.SimulationDays = days
	}
	if err := p.Validate(); err != nil {
		return err
	}

	demand := inventory.AggregateDemand(ds.Sales, ds.Attributes, p)
	abc := inventory.ClassifyABC(ds.Sales, ds.Attributes, p)
	policies := inventory.NewPolicyCalculator(p).Calculate(demand, abc)

	seed := service.ResolveSeed(c.Int64("seed"), time.Now())
	sim, err := newOrchestrator(c, nil).Simulate(c.Context, policies, seed, p)
	if err != nil {
		return err
	}

	s := sim.Summary
	logger.Log.Info().
		Int64("seed", seed).
		Int("days", s.Days).
		Int("simulated", s.SKUsSimulated).
		Int("skipped", s.Skipped).
		Float64("avg_fill_rate", s.AvgFillRate).
		Int("stockout_days", s.TotalStockoutDays).
		Int("orders", s.TotalOrdersPlaced).
		Msg("simulation complete")

	res := &pipeline.Result{Seed: seed, Params: p, Simulation: sim}
	for _, t := range export.Tables(res) {
		if t.Name != export.SheetSimulation {
			continue
		}
		paths, err := export.WriteCSVTables(c.String("output-dir"), []export.Table{t})
		if err != nil {
			return err
		}
		logger.Log.Info().Strs("paths", paths).Msg("wrote")
	}
	return nil
}

func runForecast(c *cli.Context) error {
	ds, err := loadInput(c.String("input"))
	if err != nil {
		return err
	}

	p := loadParams()
	if w := c.Int("window"); w > 0 {
		p.ForecastWindow = w
	}
	if h := c.Int("horizon"); h > 0 {
		p.ForecastHorizon = h
	}
	if err := p.Validate(); err != nil {
		return err
	}

	res := &pipeline.Result{Forecast: inventory.Forecast(ds.Sales, p)}
	for _, t := range export.Tables(res) {
		if t.Name == export.SheetForecast {
			return export.WriteCSV(c.App.Writer, t)
		}
	}
	return nil
}

func runBatch(c *cli.Context) error {
	inputs := c.StringSlice("input")

	if folderID := c.String("drive-folder-id"); folderID != "" {
		downloaded, err := downloadFromDrive(c.Context, c.String("drive-credentials"), folderID, c.String("download-dir"))
		if err != nil {
			return err
		}
		inputs = append(inputs, downloaded...)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no inputs: pass --input or --drive-folder-id")
	}

	st := storesFrom(c)
	outDir := c.String("output-dir")
	format := c.String("format")

	cfg := pipeline.DefaultBatchConfig()
	cfg.WorkerCount = c.Int("batch-workers")
	cfg.RetryAttempts = c.Int("retries")
	cfg.Params = loadParams()
	cfg.Seed = service.ResolveSeed(c.Int64("seed"), time.Now())

	worker := pipeline.NewWorker(newOrchestrator(c, st), cfg, func(ctx context.Context, job *pipeline.FileJob) error {
		logResult(job.Result)
		if st != nil {
			if err := st.results.SaveResult(ctx, job.Result); err != nil {
				return err
			}
		}
		_, err := writeOutputs(job.Result, filepath.Join(outDir, job.Result.RunID), format)
		return err
	})

	jobs, err := worker.ProcessBatch(c.Context, inputs)
	for _, job := range jobs {
		event := logger.Log.Info().Str("input", job.Path).Str("status", string(job.Status)).Int("attempts", job.Attempts)
		if job.Result != nil {
			event = event.Str("run_id", job.Result.RunID)
		}
		event.Msg("batch job")
	}
	return err
}

func downloadFromDrive(ctx context.Context, credentialsFile, folderID, dir string) ([]string, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive credentials: %w", err)
	}
	svc, err := drive.NewService(ctx, string(creds))
	if err != nil {
		return nil, err
	}
	return drive.NewDownloader(svc).DownloadFolder(ctx, drive.DownloadOptions{
		FolderID:    folderID,
		DownloadDir: dir,
	})
}

func runMigrate(c *cli.Context) error {
	db := dbFrom(c)
	dir := c.String("migrations-dir")

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		script, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(c.Context, string(script)); err != nil {
			return fmt.Errorf("migration %s: %w", filepath.Base(file), err)
		}
		logger.Log.Info().Str("file", filepath.Base(file)).Msg("migration applied")
	}
	return nil
}

func runLoad(c *cli.Context) error {
	ds, err := loadInput(c.String("input"))
	if err != nil {
		return err
	}
	if err := storesFrom(c).datasets.SaveDataset(c.Context, ds); err != nil {
		return err
	}
	logger.Log.Info().Int("sales_rows", len(ds.Sales)).Msg("dataset stored")
	return nil
}

func runListRuns(c *cli.Context) error {
	runs := storesFrom(c).runs
	since := time.Now().Add(-c.Duration("since"))

	recent, err := runs.ListRecentRuns(c.Context, since, c.Int("limit"))
	if err != nil {
		return err
	}
	for _, r := range recent {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%d\t%s\n", r.RunID, r.Status, r.Seed, r.StartedAt.Format(time.RFC3339))
	}

	stats, err := runs.GetRunStats(c.Context, since)
	if err != nil {
		return err
	}
	logger.Log.Info().Interface("stats", stats).Msg("run stats")
	return nil
}
