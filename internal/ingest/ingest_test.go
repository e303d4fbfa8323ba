package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/replenish/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.TrimSpace(content)+"\n"), 0o644))
}

func TestLoadCSVDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SalesFile, `
Store ID,SKU_ID,Date,Quantity Sold
S1,A,2024-01-01,5
S1,A,2024-01-02,"1,200"
S1,A,2024-01-03,-2
S1,,2024-01-03,1
S2,B,not-a-date,3
S2,B,2024/01/04,0
`)
	writeFile(t, dir, InventoryFile, `
store_id,sku_id,current_stock
S1,A,40
S2,B,-5
`)
	writeFile(t, dir, SKUMasterFile, `
sku_id,unit_cost,avg_lead_time,shelf_life_days
A,12.5,0,30
B,-1,3,
A,99,9,9
`)

	ds, rep, err := LoadCSVDir(dir)
	require.NoError(t, err)

	require.Len(t, ds.Sales, 3)
	assert.Equal(t, 1200.0, ds.Sales[1].QuantitySold)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), ds.Sales[2].Date)
	assert.Equal(t, 0.0, ds.Sales[2].QuantitySold)

	require.Len(t, ds.Stock, 2)
	assert.Equal(t, 0.0, ds.Stock[1].CurrentStock)

	require.Len(t, ds.Attributes, 2)
	assert.Equal(t, 1.0, ds.Attributes[0].AvgLeadTime)
	assert.Equal(t, 12.5, ds.Attributes[0].UnitCost)
	assert.Equal(t, 0.0, ds.Attributes[1].UnitCost)
	assert.Equal(t, 1.0, ds.Attributes[1].ShelfLifeDays)

	reasons := make(map[string]string)
	for _, is := range rep.Issues {
		reasons[is.Reason] = is.Action
	}
	assert.Equal(t, map[string]string{
		"negative_quantity":   actionDropped,
		"missing_key":         actionDropped,
		"invalid_date":        actionDropped,
		"negative_stock":      actionClamped,
		"lead_time_below_one": actionClamped,
		"negative_unit_cost":  actionClamped,
		"duplicate_sku":       actionDropped,
	}, reasons)
	assert.Equal(t, 4, rep.Dropped())
}

func TestLoadCSVDirMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SalesFile, "store_id,sku_id,quantity_sold\nS1,A,1")
	writeFile(t, dir, InventoryFile, "store_id,sku_id,current_stock\nS1,A,1")
	writeFile(t, dir, SKUMasterFile, "sku_id,unit_cost,avg_lead_time\nA,1,1")

	_, _, err := LoadCSVDir(dir)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	sheets := map[string][][]interface{}{
		SalesSheet: {
			{"store_id", "sku_id", "date", "quantity_sold"},
			{"S1", "A", "2024-02-01", 4},
			{"S1", "A", "2024-02-02", 6},
		},
		InventorySheet: {
			{"store_id", "sku_id", "current_stock"},
			{"S1", "A", 25},
		},
		SKUMasterSheet: {
			{"sku_id", "unit_cost", "avg_lead_time", "shelf_life_days"},
			{"A", 3.5, 2, 90},
		},
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

	path := filepath.Join(t.TempDir(), "input.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, rep, err := LoadWorkbook(path)
	require.NoError(t, err)
	assert.Empty(t, rep.Issues)

	require.Len(t, ds.Sales, 2)
	assert.Equal(t, 6.0, ds.Sales[1].QuantitySold)
	require.Len(t, ds.Stock, 1)
	assert.Equal(t, 25.0, ds.Stock[0].CurrentStock)
	require.Len(t, ds.Attributes, 1)
	assert.Equal(t, 3.5, ds.Attributes[0].UnitCost)
	assert.Equal(t, 90.0, ds.Attributes[0].ShelfLifeDays)
}

func TestParseDateExcelSerial(t *testing.T) {
	// 45292 is 2024-01-01 in the 1900 date system.
	got, ok := parseDate([]string{"45292"}, 0)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", got.Format("2006-01-02"))

	_, ok = parseDate([]string{""}, 0)
	assert.False(t, ok)
}

func TestNormalizeColumnName(t *testing.T) {
	assert.Equal(t, "quantitysold", normalizeColumnName(" Quantity_Sold "))
	assert.Equal(t, "avgleadtime", normalizeColumnName("Avg. Lead-Time"))
}

func TestLoadDispatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SalesFile, "store_id,sku_id,date,quantity_sold\nS1,A,2024-01-01,1")
	writeFile(t, dir, InventoryFile, "store_id,sku_id,current_stock\nS1,A,1")
	writeFile(t, dir, SKUMasterFile, "sku_id,unit_cost,avg_lead_time\nA,1,1")

	ds, _, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, ds.Sales, 1)

	_, _, err = Load(filepath.Join(dir, SalesFile))
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	_, _, err = Load(filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)
}

func TestLoadCSVDirNonFiniteValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, SalesFile, `
store_id,sku_id,date,quantity_sold
S1,A,2024-01-01,nan
S1,A,2024-01-02,Inf
S1,A,2024-01-03,+Inf
S1,A,2024-01-04,2
S1,A,NaN,1
`)
	writeFile(t, dir, InventoryFile, `
store_id,sku_id,current_stock
S1,A,NaN
S1,B,4
`)
	writeFile(t, dir, SKUMasterFile, `
sku_id,unit_cost,avg_lead_time,shelf_life_days
A,inf,NaN,10
B,3,-Inf,10
C,3,2,nan
`)

	ds, rep, err := LoadCSVDir(dir)
	require.NoError(t, err)

	require.Len(t, ds.Sales, 1)
	assert.Equal(t, 2.0, ds.Sales[0].QuantitySold)
	require.Len(t, ds.Stock, 1)
	assert.Equal(t, "B", ds.Stock[0].SKUID)
	require.Len(t, ds.Attributes, 1)
	assert.Equal(t, "C", ds.Attributes[0].SKUID)
	assert.Equal(t, 1.0, ds.Attributes[0].ShelfLifeDays)

	counts := make(map[string]int)
	for _, is := range rep.Issues {
		counts[is.Reason]++
	}
	assert.Equal(t, map[string]int{
		"invalid_quantity":  3,
		"invalid_date":      1,
		"invalid_stock":     1,
		"invalid_unit_cost": 1,
		"invalid_lead_time": 1,
	}, counts)
	assert.Equal(t, 7, rep.Dropped())
}

func TestDatasetClean(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := Dataset{
		Sales: []domain.SalesTransaction{
			{StoreID: "S1", SKUID: "A", Date: day, QuantitySold: 4},
			{StoreID: "S1", SKUID: "A", Date: day, QuantitySold: -3},
			{StoreID: " ", SKUID: "A", Date: day, QuantitySold: 1},
			{StoreID: "S1", SKUID: "A", QuantitySold: 1},
		},
		Stock: []domain.StockLevel{
			{StoreID: "S1", SKUID: "A", CurrentStock: -2},
		},
		Attributes: []domain.SKUAttributes{
			{SKUID: "A", UnitCost: 5, AvgLeadTime: 0, ShelfLifeDays: 30},
			{SKUID: "A", UnitCost: 9, AvgLeadTime: 2, ShelfLifeDays: 30},
		},
	}

	ds, rep := raw.Clean()

	require.Len(t, ds.Sales, 1)
	assert.Equal(t, 4.0, ds.Sales[0].QuantitySold)
	require.Len(t, ds.Stock, 1)
	assert.Equal(t, 0.0, ds.Stock[0].CurrentStock)
	require.Len(t, ds.Attributes, 1)
	assert.Equal(t, 1.0, ds.Attributes[0].AvgLeadTime)
	assert.Equal(t, 5.0, ds.Attributes[0].UnitCost)

	assert.Equal(t, []Issue{
		{Table: "sales", Row: 2, Reason: "negative_quantity", Action: actionDropped},
		{Table: "sales", Row: 3, Reason: "missing_key", Action: actionDropped},
		{Table: "sales", Row: 4, Reason: "invalid_date", Action: actionDropped},
		{Table: "inventory", Row: 1, Reason: "negative_stock", Action: actionClamped},
		{Table: "sku_master", Row: 1, Reason: "lead_time_below_one", Action: actionClamped},
		{Table: "sku_master", Row: 2, Reason: "duplicate_sku", Action: actionDropped},
	}, rep.Issues)

	again, rep2 := ds.Clean()
	assert.Equal(t, ds, again)
	assert.Empty(t, rep2.Issues)
}
