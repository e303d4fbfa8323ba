package drive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/replenish/internal/ingest"
	"github.com/andresuchdata/replenish/internal/pipeline"
	"github.com/andresuchdata/replenish/internal/service"
)

// DatasetStore persists a cleaned dataset.
type DatasetStore interface {
	SaveDataset(ctx context.Context, ds ingest.Dataset) error
}

// Analyzer runs an analysis over a cleaned dataset.
type Analyzer interface {
	Analyze(ctx context.Context, req service.AnalyzeRequest) (*pipeline.Result, bool, error)
}

// IngestService turns a Drive workbook into an analysis run.
type IngestService struct {
	source   Source
	analyzer Analyzer
	datasets DatasetStore
}

// NewIngestService wires the Drive source to the analyzer. datasets may be
// nil when the raw input should not be stored.
func NewIngestService(source Source, analyzer Analyzer, datasets DatasetStore) *IngestService {
	return &IngestService{
		source:   source,
		analyzer: analyzer,
		datasets: datasets,
	}
}

// IngestResult is what one Drive file produced.
type IngestResult struct {
	FileID string           `json:"file_id"`
	Name   string           `json:"name"`
	RunID  string           `json:"run_id"`
	Cached bool             `json:"cached"`
	Report ingest.Report    `json:"cleaning_report"`
	Result *pipeline.Result `json:"-"`
}

func (s *IngestService) IngestFile(ctx context.Context, fileID string, seed int64) (*IngestResult, error) {
	file, err := s.source.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.source.DownloadFile(ctx, file, &buf); err != nil {
		return nil, err
	}

	ds, report, err := ingest.LoadWorkbookReader(&buf)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", file.Name, err)
	}

	if s.datasets != nil {
		if err := s.datasets.SaveDataset(ctx, ds); err != nil {
			return nil, fmt.Errorf("save dataset: %w", err)
		}
	}

	res, cached, err := s.analyzer.Analyze(ctx, service.AnalyzeRequest{Dataset: ds, Seed: seed})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", file.Name, err)
	}

	log.Info().
		Str("file_id", file.ID).
		Str("name", file.Name).
		Str("run_id", res.RunID).
		Bool("cached", cached).
		Int("dropped_rows", report.Dropped()).
		Msg("drive: file analyzed")

	return &IngestResult{
		FileID: file.ID,
		Name:   file.Name,
		RunID:  res.RunID,
		Cached: cached,
		Report: report,
		Result: res,
	}, nil
}
