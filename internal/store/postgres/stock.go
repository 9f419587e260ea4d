package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// StockRepo persists per-warehouse stock rows keyed by the composite
// (SKU remote id, warehouse id).
type StockRepo struct {
	db DBTX
}

// NewStockRepo builds a StockRepo over the given pool.
func NewStockRepo(db DBTX) *StockRepo {
	return &StockRepo{db: db}
}

// Exists reports whether a row for the composite key is already present.
func (r *StockRepo) Exists(ctx context.Context, skuID int64, warehouseID string) (bool, error) {
	var one int
	err := r.db.QueryRow(ctx,
		`SELECT 1 FROM stock WHERE sku_remote_id = $1 AND warehouse_id = $2`,
		skuID, warehouseID,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select stock: %w", err)
	}
	return true, nil
}

// Insert creates a new stock row.
func (r *StockRepo) Insert(ctx context.Context, rec catalog.StockRecord, now time.Time) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO stock (sku_remote_id, warehouse_id, warehouse_name, quantity, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`,
		rec.SkuID, rec.WarehouseID, rec.WarehouseName, rec.Quantity, now,
	)
	if err != nil {
		return fmt.Errorf("insert stock: %w", err)
	}
	return nil
}

// Update refreshes quantity and warehouse name for the composite key.
func (r *StockRepo) Update(ctx context.Context, rec catalog.StockRecord, now time.Time) error {
	_, err := r.db.Exec(ctx, `
UPDATE stock
SET warehouse_name = $3, quantity = $4, updated_at = $5
WHERE sku_remote_id = $1 AND warehouse_id = $2`,
		rec.SkuID, rec.WarehouseID, rec.WarehouseName, rec.Quantity, now,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	return nil
}
