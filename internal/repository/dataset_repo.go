package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/replenish/internal/domain"
	"github.com/andresuchdata/replenish/internal/ingest"
)

// DatasetRepository stores cleaned input tables so runs can be repeated
// from the database instead of a workbook.
type DatasetRepository struct {
	db *sql.DB
}

func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

func (r *DatasetRepository) UpsertSKU(ctx context.Context, a domain.SKUAttributes) error {
	query := `
		INSERT INTO sku_master (sku_id, unit_cost, avg_lead_time, shelf_life_days, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (sku_id)
		DO UPDATE SET
			unit_cost = EXCLUDED.unit_cost,
			avg_lead_time = EXCLUDED.avg_lead_time,
			shelf_life_days = EXCLUDED.shelf_life_days,
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, a.SKUID, a.UnitCost, a.AvgLeadTime, a.ShelfLifeDays); err != nil {
		return fmt.Errorf("failed to upsert sku %s: %w", a.SKUID, err)
	}
	return nil
}

func (r *DatasetRepository) UpsertStock(ctx context.Context, s domain.StockLevel) error {
	query := `
		INSERT INTO inventory_levels (store_id, sku_id, current_stock, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (store_id, sku_id)
		DO UPDATE SET current_stock = EXCLUDED.current_stock, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, s.StoreID, s.SKUID, s.CurrentStock); err != nil {
		return fmt.Errorf("failed to upsert stock %s/%s: %w", s.StoreID, s.SKUID, err)
	}
	return nil
}

func (r *DatasetRepository) UpsertSale(ctx context.Context, tx domain.SalesTransaction) error {
	query := `
		INSERT INTO sales_transactions (store_id, sku_id, date, quantity_sold)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (store_id, sku_id, date)
		DO UPDATE SET quantity_sold = EXCLUDED.quantity_sold
	`
	if _, err := r.db.ExecContext(ctx, query, tx.StoreID, tx.SKUID, tx.Date, tx.QuantitySold); err != nil {
		return fmt.Errorf("failed to upsert sale %s/%s: %w", tx.StoreID, tx.SKUID, err)
	}
	return nil
}

// SaveDataset upserts every row of ds.
func (r *DatasetRepository) SaveDataset(ctx context.Context, ds ingest.Dataset) error {
	for _, a := range ds.Attributes {
		if err := r.UpsertSKU(ctx, a); err != nil {
			return err
		}
	}
	for _, s := range ds.Stock {
		if err := r.UpsertStock(ctx, s); err != nil {
			return err
		}
	}
	for _, tx := range ds.Sales {
		if err := r.UpsertSale(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

// LoadDataset reads sales dated within [from, to] together with the current
// stock and SKU tables. A zero bound is open.
func (r *DatasetRepository) LoadDataset(ctx context.Context, from, to time.Time) (ingest.Dataset, error) {
	var ds ingest.Dataset

	query := `
		SELECT store_id, sku_id, date, quantity_sold
		FROM sales_transactions
		WHERE ($1::date IS NULL OR date >= $1)
		  AND ($2::date IS NULL OR date <= $2)
		ORDER BY store_id, sku_id, date
	`
	rows, err := r.db.QueryContext(ctx, query, nullTime(from), nullTime(to))
	if err != nil {
		return ds, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tx domain.SalesTransaction
		if err := rows.Scan(&tx.StoreID, &tx.SKUID, &tx.Date, &tx.QuantitySold); err != nil {
			return ds, err
		}
		ds.Sales = append(ds.Sales, tx)
	}
	if err := rows.Err(); err != nil {
		return ds, err
	}

	stockRows, err := r.db.QueryContext(ctx, `SELECT store_id, sku_id, current_stock FROM inventory_levels ORDER BY store_id, sku_id`)
	if err != nil {
		return ds, fmt.Errorf("failed to query stock: %w", err)
	}
	defer stockRows.Close()
	for stockRows.Next() {
		var s domain.StockLevel
		if err := stockRows.Scan(&s.StoreID, &s.SKUID, &s.CurrentStock); err != nil {
			return ds, err
		}
		ds.Stock = append(ds.Stock, s)
	}
	if err := stockRows.Err(); err != nil {
		return ds, err
	}

	skuRows, err := r.db.QueryContext(ctx, `SELECT sku_id, unit_cost, avg_lead_time, shelf_life_days FROM sku_master ORDER BY sku_id`)
	if err != nil {
		return ds, fmt.Errorf("failed to query sku master: %w", err)
	}
	defer skuRows.Close()
	for skuRows.Next() {
		var a domain.SKUAttributes
		if err := skuRows.Scan(&a.SKUID, &a.UnitCost, &a.AvgLeadTime, &a.ShelfLifeDays); err != nil {
			return ds, err
		}
		ds.Attributes = append(ds.Attributes, a)
	}
	return ds, skuRows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
