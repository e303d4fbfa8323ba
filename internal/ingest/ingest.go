// Package ingest reads sales, stock and SKU reference tables from workbooks
// or CSV files and applies the cleaning rules the engine relies on.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/metrics"
)

// Sheet and file names of the input dataset.
const (
	SalesSheet     = "Sales_data"
	InventorySheet = "Inventory_data"
	SKUMasterSheet = "SKU_master"

	SalesFile     = "sales.csv"
	InventoryFile = "inventory.csv"
	SKUMasterFile = "sku_master.csv"
)

// Dataset is the cleaned engine input.
type Dataset struct {
	Sales      []domain.SalesTransaction `json:"sales"`
	Stock      []domain.StockLevel       `json:"stock"`
	Attributes []domain.SKUAttributes    `json:"sku_master"`
}

// Issue describes a dropped or adjusted input row.
type Issue struct {
	Table  string `json:"table"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
	Action string `json:"action"`
}

const (
	actionDropped = "dropped"
	actionClamped = "clamped"
)

// Report lists every issue found while cleaning.
type Report struct {
	Issues []Issue `json:"issues"`
}

// Dropped counts dropped rows.
func (r Report) Dropped() int {
	n := 0
	for _, is := range r.Issues {
		if is.Action == actionDropped {
			n++
		}
	}
	return n
}

func (r *Report) add(table string, row int, reason, action string) {
	r.Issues = append(r.Issues, Issue{Table: table, Row: row, Reason: reason, Action: action})
	metrics.RecordRejected(table, reason, 1)
}

// ErrUnsupportedInput is returned by Load for paths that are neither a
// workbook nor a directory.
var ErrUnsupportedInput = errors.New("ingest: unsupported input")

// Load reads a workbook or a directory of CSV files.
func Load(path string) (Dataset, Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Dataset{}, Report{}, err
	}
	if info.IsDir() {
		return LoadCSVDir(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadWorkbook(path)
	}
	return Dataset{}, Report{}, fmt.Errorf("%w: %s", ErrUnsupportedInput, path)
}

// LoadWorkbook reads the three input sheets from an xlsx file.
func LoadWorkbook(path string) (Dataset, Report, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Dataset{}, Report{}, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return loadWorkbook(f)
}

// LoadWorkbookReader reads an uploaded workbook.
func LoadWorkbookReader(r io.Reader) (Dataset, Report, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Dataset{}, Report{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return loadWorkbook(f)
}

func loadWorkbook(f *excelize.File) (Dataset, Report, error) {
	var tables [3]table
	for i, sheet := range []string{SalesSheet, InventorySheet, SKUMasterSheet} {
		t, err := readSheetTable(f, sheet)
		if err != nil {
			return Dataset{}, Report{}, err
		}
		tables[i] = t
	}
	return build(tables[0], tables[1], tables[2])
}

// LoadCSVDir reads sales.csv, inventory.csv and sku_master.csv from dir.
func LoadCSVDir(dir string) (Dataset, Report, error) {
	var tables [3]table
	for i, name := range []string{SalesFile, InventoryFile, SKUMasterFile} {
		t, err := readCSVFile(filepath.Join(dir, name))
		if err != nil {
			return Dataset{}, Report{}, err
		}
		tables[i] = t
	}
	return build(tables[0], tables[1], tables[2])
}

func readCSVFile(path string) (table, error) {
	file, err := os.Open(path)
	if err != nil {
		return table{}, err
	}
	defer file.Close()
	return readCSVTable(filepath.Base(path), file)
}

func build(sales, stock, skus table) (Dataset, Report, error) {
	var raw Dataset
	var err error

	if raw.Sales, err = parseSales(sales); err != nil {
		return Dataset{}, Report{}, err
	}
	if raw.Stock, err = parseStock(stock); err != nil {
		return Dataset{}, Report{}, err
	}
	if raw.Attributes, err = parseSKUMaster(skus); err != nil {
		return Dataset{}, Report{}, err
	}

	// Data rows start on line 2, below the header.
	ds, rep := clean(raw, 2)

	log.Info().
		Int("sales", len(ds.Sales)).
		Int("stock", len(ds.Stock)).
		Int("skus", len(ds.Attributes)).
		Int("issues", len(rep.Issues)).
		Msg("ingest: dataset loaded")

	return ds, rep, nil
}

// Clean applies the ingest row rules to a dataset that did not come from a
// file, such as a JSON request body. Issue rows are 1-based positions.
func (ds Dataset) Clean() (Dataset, Report) {
	return clean(ds, 1)
}

func clean(raw Dataset, firstRow int) (Dataset, Report) {
	var rep Report
	ds := Dataset{
		Sales:      make([]domain.SalesTransaction, 0, len(raw.Sales)),
		Stock:      make([]domain.StockLevel, 0, len(raw.Stock)),
		Attributes: make([]domain.SKUAttributes, 0, len(raw.Attributes)),
	}

	for i, tx := range raw.Sales {
		if cleanSale(&tx, firstRow+i, &rep) {
			ds.Sales = append(ds.Sales, tx)
		}
	}
	for i, s := range raw.Stock {
		if cleanStock(&s, firstRow+i, &rep) {
			ds.Stock = append(ds.Stock, s)
		}
	}
	seen := make(map[string]struct{}, len(raw.Attributes))
	for i, a := range raw.Attributes {
		if cleanAttributes(&a, firstRow+i, seen, &rep) {
			ds.Attributes = append(ds.Attributes, a)
		}
	}
	return ds, rep
}

// cleanSale drops rows with missing keys, bad dates or invalid or negative
// quantities.
func cleanSale(tx *domain.SalesTransaction, row int, rep *Report) bool {
	tx.StoreID, tx.SKUID = strings.TrimSpace(tx.StoreID), strings.TrimSpace(tx.SKUID)
	switch {
	case tx.StoreID == "" || tx.SKUID == "":
		rep.add("sales", row, "missing_key", actionDropped)
	case tx.Date.IsZero():
		rep.add("sales", row, "invalid_date", actionDropped)
	case !finite(tx.QuantitySold):
		rep.add("sales", row, "invalid_quantity", actionDropped)
	case tx.QuantitySold < 0:
		rep.add("sales", row, "negative_quantity", actionDropped)
	default:
		return true
	}
	return false
}

// cleanStock drops rows with missing keys or invalid stock and clamps
// negative stock to zero.
func cleanStock(s *domain.StockLevel, row int, rep *Report) bool {
	s.StoreID, s.SKUID = strings.TrimSpace(s.StoreID), strings.TrimSpace(s.SKUID)
	switch {
	case s.StoreID == "" || s.SKUID == "":
		rep.add("inventory", row, "missing_key", actionDropped)
		return false
	case !finite(s.CurrentStock):
		rep.add("inventory", row, "invalid_stock", actionDropped)
		return false
	case s.CurrentStock < 0:
		rep.add("inventory", row, "negative_stock", actionClamped)
		s.CurrentStock = 0
	}
	return true
}

// cleanAttributes keeps the first row per SKU, clamps unit cost to >= 0 and
// lead time and shelf life to >= 1. An invalid shelf life defaults to 1.
func cleanAttributes(a *domain.SKUAttributes, row int, seen map[string]struct{}, rep *Report) bool {
	a.SKUID = strings.TrimSpace(a.SKUID)
	if a.SKUID == "" {
		rep.add("sku_master", row, "missing_key", actionDropped)
		return false
	}
	if _, dup := seen[a.SKUID]; dup {
		rep.add("sku_master", row, "duplicate_sku", actionDropped)
		return false
	}
	if !finite(a.UnitCost) {
		rep.add("sku_master", row, "invalid_unit_cost", actionDropped)
		return false
	}
	if !finite(a.AvgLeadTime) {
		rep.add("sku_master", row, "invalid_lead_time", actionDropped)
		return false
	}
	if !finite(a.ShelfLifeDays) {
		a.ShelfLifeDays = 1
	}

	if a.UnitCost < 0 {
		rep.add("sku_master", row, "negative_unit_cost", actionClamped)
		a.UnitCost = 0
	}
	if a.AvgLeadTime < 1 {
		rep.add("sku_master", row, "lead_time_below_one", actionClamped)
		a.AvgLeadTime = 1
	}
	if a.ShelfLifeDays < 1 {
		rep.add("sku_master", row, "shelf_life_below_one", actionClamped)
		a.ShelfLifeDays = 1
	}

	seen[a.SKUID] = struct{}{}
	return true
}

// parseSales reads raw sales rows. Unparseable dates stay zero and
// unparseable quantities become NaN so clean can report them.
func parseSales(t table) ([]domain.SalesTransaction, error) {
	idxStore, err := t.require("store_id", "store")
	if err != nil {
		return nil, err
	}
	idxSKU, err := t.require("sku_id", "sku")
	if err != nil {
		return nil, err
	}
	idxDate, err := t.require("date")
	if err != nil {
		return nil, err
	}
	idxQty, err := t.require("quantity_sold", "qty", "quantity")
	if err != nil {
		return nil, err
	}

	out := make([]domain.SalesTransaction, 0, len(t.rows))
	for _, record := range t.rows {
		date, _ := parseDate(record, idxDate)
		out = append(out, domain.SalesTransaction{
			StoreID:      field(record, idxStore),
			SKUID:        field(record, idxSKU),
			Date:         date,
			QuantitySold: numberOrNaN(record, idxQty),
		})
	}
	return out, nil
}

func parseStock(t table) ([]domain.StockLevel, error) {
	idxStore, err := t.require("store_id", "store")
	if err != nil {
		return nil, err
	}
	idxSKU, err := t.require("sku_id", "sku")
	if err != nil {
		return nil, err
	}
	idxStock, err := t.require("current_stock", "stock")
	if err != nil {
		return nil, err
	}

	out := make([]domain.StockLevel, 0, len(t.rows))
	for _, record := range t.rows {
		out = append(out, domain.StockLevel{
			StoreID:      field(record, idxStore),
			SKUID:        field(record, idxSKU),
			CurrentStock: numberOrNaN(record, idxStock),
		})
	}
	return out, nil
}

// parseSKUMaster reads raw SKU rows. A missing or blank shelf life is 1.
func parseSKUMaster(t table) ([]domain.SKUAttributes, error) {
	idxSKU, err := t.require("sku_id", "sku")
	if err != nil {
		return nil, err
	}
	idxCost, err := t.require("unit_cost", "cost")
	if err != nil {
		return nil, err
	}
	idxLead, err := t.require("avg_lead_time", "lead_time")
	if err != nil {
		return nil, err
	}
	idxShelf := t.colIndex("shelf_life_days", "shelf_life")

	out := make([]domain.SKUAttributes, 0, len(t.rows))
	for _, record := range t.rows {
		shelf, ok := parseNumber(record, idxShelf)
		if !ok {
			shelf = 1
		}
		out = append(out, domain.SKUAttributes{
			SKUID:         field(record, idxSKU),
			UnitCost:      numberOrNaN(record, idxCost),
			AvgLeadTime:   numberOrNaN(record, idxLead),
			ShelfLifeDays: shelf,
		})
	}
	return out, nil
}
