package catalog

import (
	"context"
	"time"
)

// RemoteCatalog is the read contract of the supplier catalog API.
// A 404 from any lookup surfaces as ErrNotFound.
type RemoteCatalog interface {
	ProductByReference(ctx context.Context, reference string) (*Product, error)
	BrandByID(ctx context.Context, id int64) (*Brand, error)
	CategoryByID(ctx context.Context, id int64) (*Category, error)
	SkusByProductID(ctx context.Context, productID int64) ([]Sku, error)
	ImagesBySkuID(ctx context.Context, skuID int64) ([]Image, error)
	StockBySkuID(ctx context.Context, skuID int64) ([]StockRecord, error)
	AttributesByProductID(ctx context.Context, productID int64) ([]Attribute, error)
}

// AdmissionStatus is an observability snapshot of the controller.
type AdmissionStatus struct {
	InFlight int `json:"in_flight"`
	Queued   int `json:"queued"`
	Limit    int `json:"limit"`
}

// Admission bounds the number of concurrently in-flight store reads.
// Acquire blocks in FIFO order once the ceiling is reached.
type Admission interface {
	Acquire(ctx context.Context) error
	Release()
	Status() AdmissionStatus
}

// ProductStore persists products keyed by remote ID.
type ProductStore interface {
	FindIDByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error)
	Insert(ctx context.Context, p Product, now time.Time) (int64, error)
	Update(ctx context.Context, p Product, now time.Time) error
	// ExistingReferences reports which of the given references already
	// have a local product row.
	ExistingReferences(ctx context.Context, references []string) ([]string, error)
}

// BrandStore persists brands keyed by remote ID.
type BrandStore interface {
	FindIDByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error)
	Insert(ctx context.Context, b Brand, now time.Time) (int64, error)
	Update(ctx context.Context, b Brand, now time.Time) error
}

// CategoryStore persists categories keyed by remote ID.
type CategoryStore interface {
	FindIDByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error)
	Insert(ctx context.Context, c Category, now time.Time) (int64, error)
	Update(ctx context.Context, c Category, now time.Time) error
}

// SkuStore persists SKUs keyed by remote ID.
type SkuStore interface {
	FindIDByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error)
	Insert(ctx context.Context, s Sku, now time.Time) (int64, error)
	Update(ctx context.Context, s Sku, now time.Time) error
}

// ImageStore persists images keyed by remote ID.
type ImageStore interface {
	FindIDByRemoteID(ctx context.Context, remoteID int64) (int64, bool, error)
	Insert(ctx context.Context, img Image, now time.Time) (int64, error)
	Update(ctx context.Context, img Image, now time.Time) error
}

// StockStore persists stock rows keyed by (SKU remote ID, warehouse ID).
type StockStore interface {
	Exists(ctx context.Context, skuID int64, warehouseID string) (bool, error)
	Insert(ctx context.Context, rec StockRecord, now time.Time) error
	Update(ctx context.Context, rec StockRecord, now time.Time) error
}

// AttributeStore replaces a product's attribute set wholesale: old rows not
// present in the new fetch are removed.
type AttributeStore interface {
	DeleteByProductID(ctx context.Context, productID int64) error
	Insert(ctx context.Context, attr Attribute, now time.Time) error
}

// Publisher pushes import completion events downstream (Pub/Sub or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock abstracts time for elapsed measurement and inter-request pauses.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

// RetryPolicy decides whether and when a failed remote call is reattempted.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}
