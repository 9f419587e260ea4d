package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// SkuRepo persists SKUs keyed by their remote id.
type SkuRepo struct {
	db DBTX
}

// NewSkuRepo builds a SkuRepo over the given pool.
func NewSkuRepo(db DBTX) *SkuRepo {
	return &SkuRepo{db: db}
}

// FindIDByRemoteID returns the local row id for a remote SKU id.
func (r *SkuRepo) FindIDByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM skus WHERE remote_id = $1`, remoteID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select sku: %w", err)
	}
	return id, true, nil
}

// Insert creates a new SKU row and returns its local id.
func (r *SkuRepo) Insert(ctx context.Context, s catalog.Sku, now time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO skus (remote_id, product_remote_id, ean, size, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING id`,
		s.ID, s.ProductID, s.EAN, s.Size, s.Active, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert sku: %w", err)
	}
	return id, nil
}

// Update refreshes the SKU's mutable fields and timestamp.
func (r *SkuRepo) Update(ctx context.Context, s catalog.Sku, now time.Time) error {
	_, err := r.db.Exec(ctx, `
UPDATE skus
SET product_remote_id = $2, ean = $3, size = $4, active = $5, updated_at = $6
WHERE remote_id = $1`,
		s.ID, s.ProductID, s.EAN, s.Size, s.Active, now,
	)
	if err != nil {
		return fmt.Errorf("update sku: %w", err)
	}
	return nil
}
