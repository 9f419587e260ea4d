package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// CategoryRepo persists categories keyed by their remote id.
type CategoryRepo struct {
	db DBTX
}

// NewCategoryRepo builds a CategoryRepo over the given pool.
func NewCategoryRepo(db DBTX) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// FindIDByRemoteID returns the local row id for a remote category id.
func (r *CategoryRepo) FindIDByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM categories WHERE remote_id = $1`, remoteID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select category: %w", err)
	}
	return id, true, nil
}

// Insert creates a new category row and returns its local id.
func (r *CategoryRepo) Insert(ctx context.Context, c catalog.Category, now time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO categories (remote_id, name, parent_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
RETURNING id`,
		c.ID, c.Name, c.ParentID, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return id, nil
}

// Update refreshes the category's mutable fields and timestamp.
func (r *CategoryRepo) Update(ctx context.Context, c catalog.Category, now time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE categories SET name = $2, parent_id = $3, updated_at = $4 WHERE remote_id = $1`,
		c.ID, c.Name, c.ParentID, now,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}
