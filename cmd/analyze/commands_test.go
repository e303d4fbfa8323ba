package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/ingest"
	"github.com/andresuchdata/replenish/internal/inventory"
	"github.com/andresuchdata/replenish/internal/pipeline"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in       string
		csv      bool
		xlsx     bool
		hasError bool
	}{
		{"csv", true, false, false},
		{"XLSX", false, true, false},
		{"both", true, true, false},
		{"", true, true, false},
		{"pdf", false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			csv, xlsx, err := parseFormat(tt.in)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.csv, csv)
			assert.Equal(t, tt.xlsx, xlsx)
		})
	}
}

func TestWriteOutputs(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	var ds ingest.Dataset
	for d := 0; d < 7; d++ {
		ds.Sales = append(ds.Sales, domain.SalesTransaction{StoreID: "S1", SKUID: "A", Date: start.AddDate(0, 0, d), QuantitySold: 3})
	}
	ds.Stock = []domain.StockLevel{{StoreID: "S1", SKUID: "A", CurrentStock: 9}}
	ds.Attributes = []domain.SKUAttributes{{SKUID: "A", UnitCost: 4, AvgLeadTime: 2, ShelfLifeDays: 30}}

	res, err := pipeline.NewOrchestrator(1).Run(context.Background(), pipeline.Input{
		Dataset: ds,
		Params:  inventory.DefaultParams(),
		Seed:    1,
	})
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := writeOutputs(res, dir, formatBoth)
	require.NoError(t, err)
	assert.Contains(t, paths, filepath.Join(dir, workbookFile))
	assert.Contains(t, paths, filepath.Join(dir, "kpi.csv"))

	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}

	_, err = writeOutputs(res, dir, "pdf")
	assert.Error(t, err)
}
