package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// ImageRepo persists image metadata keyed by the remote image id. Binary
// content stays at the supplier; only the URL and placement are mirrored.
type ImageRepo struct {
	db DBTX
}

// NewImageRepo builds an ImageRepo over the given pool.
func NewImageRepo(db DBTX) *ImageRepo {
	return &ImageRepo{db: db}
}

// FindIDByRemoteID returns the local row id for a remote image id.
func (r *ImageRepo) FindIDByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM images WHERE remote_id = $1`, remoteID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select image: %w", err)
	}
	return id, true, nil
}

// Insert creates a new image row and returns its local id.
func (r *ImageRepo) Insert(ctx context.Context, img catalog.Image, now time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO images (remote_id, sku_remote_id, url, position, cover, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING id`,
		img.ID, img.SkuID, img.URL, img.Position, img.Cover, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert image: %w", err)
	}
	return id, nil
}

// Update refreshes the image's mutable fields and timestamp.
func (r *ImageRepo) Update(ctx context.Context, img catalog.Image, now time.Time) error {
	_, err := r.db.Exec(ctx, `
UPDATE images
SET sku_remote_id = $2, url = $3, position = $4, cover = $5, updated_at = $6
WHERE remote_id = $1`,
		img.ID, img.SkuID, img.URL, img.Position, img.Cover, now,
	)
	if err != nil {
		return fmt.Errorf("update image: %w", err)
	}
	return nil
}
