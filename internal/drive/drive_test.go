package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/replenish/internal/ingest"
	"github.com/andresuchdata/replenish/internal/pipeline"
	"github.com/andresuchdata/replenish/internal/service"
)

type fakeSource struct {
	files   []*File
	content map[string][]byte
}

func (s *fakeSource) ListFiles(_ context.Context, _ string) ([]*File, error) {
	return s.files, nil
}

func (s *fakeSource) GetFile(_ context.Context, fileID string) (*File, error) {
	for _, f := range s.files {
		if f.ID == fileID {
			return f, nil
		}
	}
	return nil, fmt.Errorf("file %s not found", fileID)
}

func (s *fakeSource) DownloadFile(_ context.Context, file *File, w io.Writer) error {
	data, ok := s.content[file.ID]
	if !ok {
		return errors.New("no content")
	}
	_, err := w.Write(data)
	return err
}

type fakeAnalyzer struct {
	got service.AnalyzeRequest
}

func (a *fakeAnalyzer) Analyze(_ context.Context, req service.AnalyzeRequest) (*pipeline.Result, bool, error) {
	a.got = req
	return &pipeline.Result{RunID: "run-42", Seed: req.Seed}, false, nil
}

type fakeDatasets struct {
	saved int
}

func (d *fakeDatasets) SaveDataset(context.Context, ingest.Dataset) error {
	d.saved++
	return nil
}

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheets := map[string][][]interface{}{
		ingest.SalesSheet: {
			{"store_id", "sku_id", "date", "quantity_sold"},
			{"S1", "A", "2024-06-01", 2},
			{"S1", "A", "2024-06-02", 4},
		},
		ingest.InventorySheet: {{"store_id", "sku_id", "current_stock"}, {"S1", "A", 10}},
		ingest.SKUMasterSheet: {{"sku_id", "unit_cost", "avg_lead_time", "shelf_life_days"}, {"A", 6, 2, 30}},
	}
	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestDownloadFolder(t *testing.T) {
	src := &fakeSource{
		files: []*File{
			{ID: "1", Name: "week1.xlsx"},
			{ID: "2", Name: "Week 2", MimeType: spreadsheetMimeType},
			{ID: "3", Name: "sales.csv"},
			{ID: "4", Name: "inventory.csv"},
			{ID: "5", Name: "sku_master.csv"},
			{ID: "6", Name: "notes.txt"},
		},
		content: map[string][]byte{
			"1": []byte("x"), "2": []byte("y"),
			"3": []byte("a"), "4": []byte("b"), "5": []byte("c"),
		},
	}
	dir := t.TempDir()

	inputs, err := NewDownloader(src).DownloadFolder(context.Background(), DownloadOptions{DownloadDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "week1.xlsx"),
		filepath.Join(dir, "Week 2.xlsx"),
		filepath.Join(dir, "csv"),
	}, inputs)

	data, err := os.ReadFile(filepath.Join(dir, "csv", ingest.SalesFile))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestDownloadFolderIncompleteCSV(t *testing.T) {
	src := &fakeSource{
		files:   []*File{{ID: "3", Name: "sales.csv"}},
		content: map[string][]byte{"3": []byte("a")},
	}

	inputs, err := NewDownloader(src).DownloadFolder(context.Background(), DownloadOptions{DownloadDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, inputs)

	_, err = NewDownloader(src).DownloadFolder(context.Background(), DownloadOptions{})
	assert.Error(t, err)
}

func TestIngestFile(t *testing.T) {
	src := &fakeSource{
		files:   []*File{{ID: "wb", Name: "input.xlsx"}},
		content: map[string][]byte{"wb": workbookBytes(t)},
	}
	analyzer := &fakeAnalyzer{}
	datasets := &fakeDatasets{}

	res, err := NewIngestService(src, analyzer, datasets).IngestFile(context.Background(), "wb", 12)
	require.NoError(t, err)
	assert.Equal(t, "run-42", res.RunID)
	assert.Equal(t, "input.xlsx", res.Name)
	assert.Equal(t, 1, datasets.saved)
	assert.Equal(t, int64(12), analyzer.got.Seed)
	assert.Len(t, analyzer.got.Dataset.Sales, 2)

	_, err = NewIngestService(src, analyzer, nil).IngestFile(context.Background(), "missing", 0)
	assert.Error(t, err)
}

func TestHandlerRoutes(t *testing.T) {
	src := &fakeSource{
		files:   []*File{{ID: "wb", Name: "input.xlsx"}},
		content: map[string][]byte{"wb": workbookBytes(t)},
	}
	r := mux.NewRouter()
	NewHandler(src, nil, NewIngestService(src, &fakeAnalyzer{}, nil)).RegisterRoutes(r)

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drive/files", nil))
		require.Equal(t, http.StatusOK, w.Code)
		var files []*File
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
		assert.Len(t, files, 1)
	})

	t.Run("download requires id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/drive/files/download", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ingest", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/drive/ingest?fileId=wb&seed=3", nil))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res IngestResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "run-42", res.RunID)
	})

	t.Run("ingest bad seed", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/drive/ingest?fileId=wb&seed=x", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
