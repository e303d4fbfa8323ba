package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/replenish/internal/ingest"
)

func writeInputDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		ingest.SalesFile:     "store_id,sku_id,date,quantity_sold\nS1,A,2024-01-01,3\nS1,A,2024-01-02,5\n",
		ingest.InventoryFile: "store_id,sku_id,current_stock\nS1,A,20\n",
		ingest.SKUMasterFile: "sku_id,unit_cost,avg_lead_time,shelf_life_days\nA,10,2,30\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestWorkerProcessBatch(t *testing.T) {
	good := writeInputDir(t)
	bad := filepath.Join(t.TempDir(), "missing.xlsx")

	var handled atomic.Int32
	cfg := DefaultBatchConfig()
	cfg.WorkerCount = 2
	cfg.RetryAttempts = 2
	cfg.RetryBackoff = 0
	cfg.Seed = 5

	w := NewWorker(NewOrchestrator(1), cfg, func(_ context.Context, job *FileJob) error {
		handled.Add(1)
		return nil
	})

	jobs, err := w.ProcessBatch(context.Background(), []string{good, bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.xlsx")
	require.Len(t, jobs, 2)

	assert.Equal(t, FileStatusCompleted, jobs[0].Status)
	assert.Equal(t, 1, jobs[0].Attempts)
	require.NotNil(t, jobs[0].Result)
	assert.Equal(t, int64(5), jobs[0].Result.Seed)
	assert.NotNil(t, jobs[0].ProcessedAt)

	assert.Equal(t, FileStatusFailed, jobs[1].Status)
	assert.Equal(t, 2, jobs[1].Attempts)
	assert.Nil(t, jobs[1].Result)

	assert.Equal(t, int32(1), handled.Load())
}

func TestWorkerProcessBatchAllGood(t *testing.T) {
	w := NewWorker(NewOrchestrator(1), DefaultBatchConfig(), nil)

	jobs, err := w.ProcessBatch(context.Background(), []string{writeInputDir(t), writeInputDir(t)})
	require.NoError(t, err)
	for _, job := range jobs {
		assert.Equal(t, FileStatusCompleted, job.Status)
	}
}
