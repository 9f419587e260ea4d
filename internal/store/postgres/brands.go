package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// BrandRepo persists brands keyed by their remote id. Brands are shared
// across products, so upserts must stay idempotent.
type BrandRepo struct {
	db DBTX
}

// NewBrandRepo builds a BrandRepo over the given pool.
func NewBrandRepo(db DBTX) *BrandRepo {
	return &BrandRepo{db: db}
}

// FindIDByRemoteID returns the local row id for a remote brand id.
func (r *BrandRepo) FindIDByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM brands WHERE remote_id = $1`, remoteID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select brand: %w", err)
	}
	return id, true, nil
}

// Insert creates a new brand row and returns its local id.
func (r *BrandRepo) Insert(ctx context.Context, b catalog.Brand, now time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO brands (remote_id, name, created_at, updated_at)
VALUES ($1, $2, $3, $3)
RETURNING id`,
		b.ID, b.Name, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert brand: %w", err)
	}
	return id, nil
}

// Update refreshes the brand's mutable fields and timestamp.
func (r *BrandRepo) Update(ctx context.Context, b catalog.Brand, now time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE brands SET name = $2, updated_at = $3 WHERE remote_id = $1`,
		b.ID, b.Name, now,
	)
	if err != nil {
		return fmt.Errorf("update brand: %w", err)
	}
	return nil
}
