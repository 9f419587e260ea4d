package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// AttributeRepo persists product attributes keyed by
// (product remote id, attribute id). The set is replaced wholesale on each
// import run so attributes absent from the new fetch disappear locally.
type AttributeRepo struct {
	db DBTX
}

// NewAttributeRepo builds an AttributeRepo over the given pool.
func NewAttributeRepo(db DBTX) *AttributeRepo {
	return &AttributeRepo{db: db}
}

// DeleteByProductID removes every attribute row of a product.
func (r *AttributeRepo) DeleteByProductID(ctx context.Context, productID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM product_attributes WHERE product_remote_id = $1`, productID,
	)
	if err != nil {
		return fmt.Errorf("delete attributes: %w", err)
	}
	return nil
}

// Insert creates one attribute row.
func (r *AttributeRepo) Insert(ctx context.Context, attr catalog.Attribute, now time.Time) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO product_attributes (product_remote_id, attribute_id, name, "values", created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`,
		attr.ProductID, attr.AttributeID, attr.Name, attr.Values, now,
	)
	if err != nil {
		return fmt.Errorf("insert attribute: %w", err)
	}
	return nil
}
