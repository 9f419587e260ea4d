package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// ProductRepo persists products keyed by their remote id.
type ProductRepo struct {
	db DBTX
}

// NewProductRepo builds a ProductRepo over the given pool.
func NewProductRepo(db DBTX) *ProductRepo {
	return &ProductRepo{db: db}
}

// FindIDByRemoteID returns the local row id for a remote product id.
func (r *ProductRepo) FindIDByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM products WHERE remote_id = $1`, remoteID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select product: %w", err)
	}
	return id, true, nil
}

// Insert creates a new product row and returns its local id.
func (r *ProductRepo) Insert(ctx context.Context, p catalog.Product, now time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO products (remote_id, reference, name, description, brand_id, category_id, active, visible, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
RETURNING id`,
		p.ID, p.Reference, p.Name, p.Description, p.BrandID, p.CategoryID, p.Active, p.Visible, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

// Update refreshes all mutable fields and the update timestamp.
func (r *ProductRepo) Update(ctx context.Context, p catalog.Product, now time.Time) error {
	_, err := r.db.Exec(ctx, `
UPDATE products
SET reference = $2, name = $3, description = $4, brand_id = $5, category_id = $6, active = $7, visible = $8, updated_at = $9
WHERE remote_id = $1`,
		p.ID, p.Reference, p.Name, p.Description, p.BrandID, p.CategoryID, p.Active, p.Visible, now,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// ExistingReferences reports which of the given references already have a
// local product row. Used by callers to decide skip-existing policies.
func (r *ProductRepo) ExistingReferences(ctx context.Context, references []string) ([]string, error) {
	if len(references) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT reference FROM products WHERE reference = ANY($1)`, references,
	)
	if err != nil {
		return nil, fmt.Errorf("select existing references: %w", err)
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		existing = append(existing, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate references: %w", err)
	}
	return existing, nil
}
