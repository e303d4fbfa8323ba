package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/replenish/internal/ingest"
	"github.com/andresuchdata/replenish/internal/inventory"
)

// FileJobStatus represents the state of a single input in a batch
type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
)

// FileJob tracks the analysis of one input workbook or CSV directory
type FileJob struct {
	Path        string
	Status      FileJobStatus
	Attempts    int
	Report      ingest.Report
	Result      *Result
	Err         error
	ProcessedAt *time.Time
}

// BatchConfig holds configuration for a batch of analyses
type BatchConfig struct {
	WorkerCount   int           // Number of inputs analysed concurrently
	RetryAttempts int           // Attempts per input before it is marked failed
	RetryBackoff  time.Duration // Backoff duration between attempts
	Params        inventory.Params
	Seed          int64
}

// DefaultBatchConfig returns sensible defaults
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		WorkerCount:   4,
		RetryAttempts: 1,
		RetryBackoff:  time.Second,
		Params:        inventory.DefaultParams(),
	}
}

// ResultHandler receives each completed job, for example to export it.
type ResultHandler func(ctx context.Context, job *FileJob) error

// Worker analyses a batch of independent inputs
type Worker struct {
	orch     *Orchestrator
	config   BatchConfig
	load     func(path string) (ingest.Dataset, ingest.Report, error)
	onResult ResultHandler
}

// NewWorker creates a new batch worker
func NewWorker(orch *Orchestrator, config BatchConfig, onResult ResultHandler) *Worker {
	return &Worker{
		orch:     orch,
		config:   config,
		load:     ingest.Load,
		onResult: onResult,
	}
}

// ProcessBatch analyses every input and returns one job per path, in order.
// Failed inputs do not stop the batch; the returned error joins them.
func (w *Worker) ProcessBatch(ctx context.Context, paths []string) ([]*FileJob, error) {
	log.Info().Int("files", len(paths)).Msg("batch: starting")

	jobs := make([]*FileJob, len(paths))
	for i, p := range paths {
		jobs[i] = &FileJob{Path: p, Status: FileStatusQueued}
	}

	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	jobChan := make(chan *FileJob, len(jobs))
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				w.processFile(ctx, job)
				if job.Err != nil {
					log.Error().Err(job.Err).Int("worker", workerID).Str("path", job.Path).Msg("batch: input failed")
				}
			}
		}(i)
	}

	var enqueueErr error
enqueue:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			enqueueErr = ctx.Err()
			break enqueue
		case jobChan <- job:
		}
	}
	close(jobChan)
	wg.Wait()

	var errs []error
	if enqueueErr != nil {
		errs = append(errs, enqueueErr)
	}
	completed := 0
	for _, job := range jobs {
		switch job.Status {
		case FileStatusCompleted:
			completed++
		case FileStatusFailed:
			errs = append(errs, fmt.Errorf("%s: %w", job.Path, job.Err))
		}
	}

	log.Info().Int("files", len(jobs)).Int("completed", completed).Msg("batch: finished")

	return jobs, errors.Join(errs...)
}

// processFile runs one input with retries
func (w *Worker) processFile(ctx context.Context, job *FileJob) {
	job.Status = FileStatusProcessing

	attempts := w.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for job.Attempts < attempts {
		job.Attempts++
		job.Err = w.analyse(ctx, job)
		if job.Err == nil {
			job.Status = FileStatusCompleted
			now := time.Now()
			job.ProcessedAt = &now
			return
		}
		if ctx.Err() != nil || job.Attempts >= attempts {
			break
		}

		log.Warn().Err(job.Err).Str("path", job.Path).
			Int("attempt", job.Attempts).Int("max", attempts).
			Msg("batch: retrying input")

		select {
		case <-ctx.Done():
			job.Err = ctx.Err()
			job.Status = FileStatusFailed
			return
		case <-time.After(w.config.RetryBackoff):
		}
	}

	job.Status = FileStatusFailed
}

func (w *Worker) analyse(ctx context.Context, job *FileJob) error {
	ds, rep, err := w.load(job.Path)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	job.Report = rep

	res, err := w.orch.Run(ctx, Input{Dataset: ds, Params: w.config.Params, Seed: w.config.Seed})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	job.Result = res

	if w.onResult != nil {
		if err := w.onResult(ctx, job); err != nil {
			return fmt.Errorf("result handler failed: %w", err)
		}
	}
	return nil
}
