package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/ingest"
	"github.com/andresuchdata/replenish/internal/inventory"
	"github.com/andresuchdata/replenish/internal/pipeline"
)

func sampleResult(t *testing.T) *pipeline.Result {
	t.Helper()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var ds ingest.Dataset
	for d := 0; d < 10; d++ {
		ds.Sales = append(ds.Sales,
			domain.SalesTransaction{StoreID: "S1", SKUID: "A", Date: start.AddDate(0, 0, d), QuantitySold: float64(3 + d%4)},
			domain.SalesTransaction{StoreID: "S1", SKUID: "Z", Date: start.AddDate(0, 0, d), QuantitySold: 0},
		)
	}
	ds.Stock = []domain.StockLevel{
		{StoreID: "S1", SKUID: "A", CurrentStock: 25},
		{StoreID: "S1", SKUID: "Z", CurrentStock: 10},
	}
	ds.Attributes = []domain.SKUAttributes{
		{SKUID: "A", UnitCost: 9.99, AvgLeadTime: 2, ShelfLifeDays: 60},
		{SKUID: "Z", UnitCost: 4, AvgLeadTime: 2, ShelfLifeDays: 60},
	}

	res, err := pipeline.NewOrchestrator(1).Run(context.Background(), pipeline.Input{
		Dataset: ds,
		Params:  inventory.DefaultParams(),
		Seed:    11,
	})
	require.NoError(t, err)
	return res
}

func TestTablesOrderAndShape(t *testing.T) {
	tables := Tables(sampleResult(t))

	var names []string
	for _, tb := range tables {
		names = append(names, tb.Name)
		for _, row := range tb.Rows {
			assert.Len(t, row, len(tb.Header), tb.Name)
		}
	}
	assert.Equal(t, []string{
		SheetSummary, SheetDemand, SheetForecast, SheetABC, SheetPolicy,
		SheetSKUPolicy, SheetKPI, SheetSimulation, SheetCostBenefit, SheetWorkingCapital,
	}, names)
	assert.Len(t, tables[1].Rows, 2)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, 10.01, money(10.005))
	assert.Equal(t, -3.5, money(-3.4999999))
	assert.Equal(t, 0.0, money(0))
}

func TestWriteCSVUndefinedCells(t *testing.T) {
	tb := Table{
		Name:   "KPI",
		Header: []string{"sku_id", "days_of_supply", "stock"},
		Rows: [][]any{
			{"Z", nullable(domain.Undefined()), 10},
			{"A", nullable(domain.Defined(2.5)), int64(3)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tb))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"sku_id", "days_of_supply", "stock"},
		{"Z", "", "10"},
		{"A", "2.5", "3"},
	}, records)
}

func TestWriteCSVTables(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	tables := Tables(sampleResult(t))

	paths, err := WriteCSVTables(dir, tables)
	require.NoError(t, err)
	require.Len(t, paths, len(tables))

	data, err := os.ReadFile(filepath.Join(dir, "demand_analysis.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "store_id,sku_id,mean_demand"))
}

func TestWorkbook(t *testing.T) {
	tables := Tables(sampleResult(t))

	data, err := WorkbookBytes(tables)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.NotContains(t, sheets, "Sheet1")
	assert.Len(t, sheets, len(tables))
	assert.Equal(t, SheetSummary, sheets[0])

	rows, err := f.GetRows(SheetABC)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "rank", rows[0][0])
	assert.Equal(t, "A", rows[1][1])
	assert.Equal(t, "A", rows[1][6])
}
