// Package catalog defines core types shared across the import pipeline.
package catalog

import "time"

// Stage identifies one entity-import step within the per-reference pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageProduct    Stage = "product"
	StageBrand      Stage = "brand"
	StageCategory   Stage = "category"
	StageSkus       Stage = "skus"
	StageImages     Stage = "images"
	StageStock      Stage = "stock"
	StageAttributes Stage = "attributes"
)

// Product is a supplier catalog product. The remote numeric ID is the
// natural key used for local upserts.
type Product struct {
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BrandID     int64  `json:"brandId"`
	CategoryID  int64  `json:"categoryId"`
	Active      bool   `json:"active"`
	Visible     bool   `json:"visible"`
}

// Brand is shared across products and upserted idempotently by remote ID.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is shared across products and upserted idempotently by remote ID.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID int64  `json:"parentId"`
}

// Sku belongs to exactly one product, referenced by the product's remote ID.
type Sku struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"productId"`
	EAN       string `json:"ean"`
	Size      string `json:"size"`
	Active    bool   `json:"active"`
}

// Image belongs to one SKU.
type Image struct {
	ID       int64  `json:"id"`
	SkuID    int64  `json:"skuId"`
	URL      string `json:"url"`
	Position int    `json:"position"`
	Cover    bool   `json:"cover"`
}

// StockRecord is keyed by (SKU remote ID, warehouse ID); one row per warehouse.
type StockRecord struct {
	SkuID         int64  `json:"skuId"`
	WarehouseID   string `json:"warehouseId"`
	WarehouseName string `json:"warehouseName"`
	Quantity      int    `json:"quantity"`
}

// Attribute is a free-form multi-value product field keyed by
// (product remote ID, attribute ID).
type Attribute struct {
	ProductID   int64    `json:"productId"`
	AttributeID int64    `json:"attributeId"`
	Name        string   `json:"name"`
	Values      []string `json:"values"`
}

// EntityResult reports the outcome of one pipeline stage. Single-entity
// stages fill LocalID; collection stages fill the Inserted/Updated/Filtered
// counters instead.
type EntityResult struct {
	Stage    Stage       `json:"stage"`
	Executed bool        `json:"executed"`
	Skipped  bool        `json:"skipped"`
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	LocalID  int64       `json:"local_id,omitempty"`
	Inserted int         `json:"inserted"`
	Updated  int         `json:"updated"`
	Filtered int         `json:"filtered"`
	Err      *StageError `json:"error,omitempty"`
}

// ImportResult aggregates the per-stage outcomes for one catalog reference.
// It is ephemeral: created per invocation and discarded after being returned.
type ImportResult struct {
	RunID      string        `json:"run_id"`
	Reference  string        `json:"reference"`
	Success    bool          `json:"success"`
	Message    string        `json:"message,omitempty"`
	Product    EntityResult  `json:"product"`
	Brand      EntityResult  `json:"brand"`
	Category   EntityResult  `json:"category"`
	Skus       EntityResult  `json:"skus"`
	Images     EntityResult  `json:"images"`
	Stock      EntityResult  `json:"stock"`
	Attributes EntityResult  `json:"attributes"`
	Elapsed    time.Duration `json:"elapsed"`
	Errors     []StageError  `json:"errors"`
}

// StageResult returns a pointer to the sub-result for the given stage.
func (r *ImportResult) StageResult(stage Stage) *EntityResult {
	switch stage {
	case StageProduct:
		return &r.Product
	case StageBrand:
		return &r.Brand
	case StageCategory:
		return &r.Category
	case StageSkus:
		return &r.Skus
	case StageImages:
		return &r.Images
	case StageStock:
		return &r.Stock
	case StageAttributes:
		return &r.Attributes
	default:
		return nil
	}
}

// RecordError appends a stage error to the result's error list.
func (r *ImportResult) RecordError(err *StageError) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, *err)
}
