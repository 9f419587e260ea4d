package orchestrator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/admission"
	"github.com/brandgate/catalog-sync/internal/catalog"
	"github.com/brandgate/catalog-sync/internal/importer"
)

// remoteFixture is an in-memory supplier catalog for end-to-end runs.
type remoteFixture struct {
	products   map[string]*catalog.Product
	brands     map[int64]*catalog.Brand
	categories map[int64]*catalog.Category
	skus       map[int64][]catalog.Sku
	images     map[int64][]catalog.Image
	stock      map[int64][]catalog.StockRecord
	attributes map[int64][]catalog.Attribute

	imageCalls []int64
}

func (f *remoteFixture) ProductByReference(_ context.Context, ref string) (*catalog.Product, error) {
	if p, ok := f.products[ref]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("product %s: %w", ref, catalog.ErrNotFound)
}

func (f *remoteFixture) BrandByID(_ context.Context, id int64) (*catalog.Brand, error) {
	if b, ok := f.brands[id]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("brand %d: %w", id, catalog.ErrNotFound)
}

func (f *remoteFixture) CategoryByID(_ context.Context, id int64) (*catalog.Category, error) {
	if c, ok := f.categories[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("category %d: %w", id, catalog.ErrNotFound)
}

func (f *remoteFixture) SkusByProductID(_ context.Context, id int64) ([]catalog.Sku, error) {
	if s, ok := f.skus[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("skus %d: %w", id, catalog.ErrNotFound)
}

func (f *remoteFixture) ImagesBySkuID(_ context.Context, id int64) ([]catalog.Image, error) {
	f.imageCalls = append(f.imageCalls, id)
	if imgs, ok := f.images[id]; ok {
		return imgs, nil
	}
	return nil, fmt.Errorf("images %d: %w", id, catalog.ErrNotFound)
}

func (f *remoteFixture) StockBySkuID(_ context.Context, id int64) ([]catalog.StockRecord, error) {
	if st, ok := f.stock[id]; ok {
		return st, nil
	}
	return nil, fmt.Errorf("stock %d: %w", id, catalog.ErrNotFound)
}

func (f *remoteFixture) AttributesByProductID(_ context.Context, id int64) ([]catalog.Attribute, error) {
	if at, ok := f.attributes[id]; ok {
		return at, nil
	}
	return nil, fmt.Errorf("attributes %d: %w", id, catalog.ErrNotFound)
}

// memoryStore is a minimal upsert store shared by the id-keyed entities.
type memoryStore struct {
	rows   map[int64]int64
	nextID int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: map[int64]int64{}, nextID: 1}
}

func (s *memoryStore) find(remoteID int64) (int64, bool, error) {
	id, ok := s.rows[remoteID]
	return id, ok, nil
}

func (s *memoryStore) insert(remoteID int64) (int64, error) {
	id := s.nextID
	s.nextID++
	s.rows[remoteID] = id
	return id, nil
}

type memProductStore struct{ *memoryStore }

func (s memProductStore) FindIDByRemoteID(_ context.Context, remoteID int64) (int64, bool, error) {
	return s.find(remoteID)
}

func (s memProductStore) Insert(_ context.Context, p catalog.Product, _ time.Time) (int64, error) {
	return s.insert(p.ID)
}

func (s memProductStore) Update(context.Context, catalog.Product, time.Time) error { return nil }

func (s memProductStore) ExistingReferences(context.Context, []string) ([]string, error) {
	return nil, nil
}

type memBrandStore struct{ *memoryStore }

func (s memBrandStore) FindIDByRemoteID(_ context.Context, remoteID int64) (int64, bool, error) {
	return s.find(remoteID)
}

func (s memBrandStore) Insert(_ context.Context, b catalog.Brand, _ time.Time) (int64, error) {
	return s.insert(b.ID)
}

func (s memBrandStore) Update(context.Context, catalog.Brand, time.Time) error { return nil }

type memCategoryStore struct{ *memoryStore }

func (s memCategoryStore) FindIDByRemoteID(_ context.Context, remoteID int64) (int64, bool, error) {
	return s.find(remoteID)
}

func (s memCategoryStore) Insert(_ context.Context, c catalog.Category, _ time.Time) (int64, error) {
	return s.insert(c.ID)
}

func (s memCategoryStore) Update(context.Context, catalog.Category, time.Time) error { return nil }

type memSkuStore struct{ *memoryStore }

func (s memSkuStore) FindIDByRemoteID(_ context.Context, remoteID int64) (int64, bool, error) {
	return s.find(remoteID)
}

func (s memSkuStore) Insert(_ context.Context, sku catalog.Sku, _ time.Time) (int64, error) {
	return s.insert(sku.ID)
}

func (s memSkuStore) Update(context.Context, catalog.Sku, time.Time) error { return nil }

type memImageStore struct{ *memoryStore }

func (s memImageStore) FindIDByRemoteID(_ context.Context, remoteID int64) (int64, bool, error) {
	return s.find(remoteID)
}

func (s memImageStore) Insert(_ context.Context, img catalog.Image, _ time.Time) (int64, error) {
	return s.insert(img.ID)
}

func (s memImageStore) Update(context.Context, catalog.Image, time.Time) error { return nil }

type memStockStore struct {
	rows map[string]catalog.StockRecord
}

func (s *memStockStore) Exists(_ context.Context, skuID int64, warehouseID string) (bool, error) {
	_, ok := s.rows[fmt.Sprintf("%d/%s", skuID, warehouseID)]
	return ok, nil
}

func (s *memStockStore) Insert(_ context.Context, rec catalog.StockRecord, _ time.Time) error {
	s.rows[fmt.Sprintf("%d/%s", rec.SkuID, rec.WarehouseID)] = rec
	return nil
}

func (s *memStockStore) Update(_ context.Context, rec catalog.StockRecord, _ time.Time) error {
	s.rows[fmt.Sprintf("%d/%s", rec.SkuID, rec.WarehouseID)] = rec
	return nil
}

type memAttributeStore struct {
	rows map[int64][]catalog.Attribute
}

func (s *memAttributeStore) DeleteByProductID(_ context.Context, productID int64) error {
	delete(s.rows, productID)
	return nil
}

func (s *memAttributeStore) Insert(_ context.Context, attr catalog.Attribute, _ time.Time) error {
	s.rows[attr.ProductID] = append(s.rows[attr.ProductID], attr)
	return nil
}

func tromolmFixture() *remoteFixture {
	return &remoteFixture{
		products: map[string]*catalog.Product{
			"TROMOLM0090L1": {
				ID:         2000024,
				Reference:  "TROMOLM0090L1",
				Name:       "Wool Coat",
				BrandID:    500,
				CategoryID: 900,
				Active:     true,
				Visible:    true,
			},
		},
		brands:     map[int64]*catalog.Brand{500: {ID: 500, Name: "ACME"}},
		categories: map[int64]*catalog.Category{900: {ID: 900, Name: "Coats"}},
		skus: map[int64][]catalog.Sku{
			2000024: {
				{ID: 310001, ProductID: 2000024, EAN: "111", Size: "M", Active: true},
				{ID: 310002, ProductID: 2000024, EAN: "222", Size: "L", Active: true},
			},
		},
		images: map[int64][]catalog.Image{
			310002: {
				{ID: 1, SkuID: 310002, URL: "https://cdn/1.jpg", Position: 1, Cover: true},
				{ID: 2, SkuID: 310002, URL: "https://cdn/2.jpg", Position: 2},
				{ID: 3, SkuID: 310002, URL: "https://cdn/3.jpg", Position: 3},
			},
		},
		stock: map[int64][]catalog.StockRecord{
			310001: {
				{SkuID: 310001, WarehouseID: "13", WarehouseName: "Central", Quantity: 4},
				{SkuID: 310001, WarehouseID: "21", WarehouseName: "North", Quantity: 2},
			},
			310002: {
				{SkuID: 310002, WarehouseID: "13", WarehouseName: "Central", Quantity: 9},
			},
		},
		attributes: map[int64][]catalog.Attribute{
			2000024: {
				{ProductID: 2000024, AttributeID: 1, Name: "Seller", Values: []string{"ACME Store"}},
				{ProductID: 2000024, AttributeID: 2, Name: "Material", Values: []string{"Wool"}},
			},
		},
	}
}

func buildFullPipeline(remote catalog.RemoteCatalog) Importers {
	adm := admission.New(4)
	clock := &recordingClock{now: time.Unix(1700000000, 0)}
	logger := zap.NewNop()
	return Importers{
		Product:    importer.NewProductImporter(remote, memProductStore{newMemoryStore()}, adm, clock, logger),
		Brand:      importer.NewBrandImporter(remote, memBrandStore{newMemoryStore()}, adm, clock, logger),
		Category:   importer.NewCategoryImporter(remote, memCategoryStore{newMemoryStore()}, adm, clock, logger),
		Skus:       importer.NewSkuImporter(remote, memSkuStore{newMemoryStore()}, adm, clock, logger),
		Images:     importer.NewImageImporter(remote, memImageStore{newMemoryStore()}, adm, clock, logger),
		Stock:      importer.NewStockImporter(remote, &memStockStore{rows: map[string]catalog.StockRecord{}}, adm, clock, logger),
		Attributes: importer.NewAttributesImporter(remote, &memAttributeStore{rows: map[int64][]catalog.Attribute{}}, adm, clock, logger),
	}
}

func TestFullReferenceImport(t *testing.T) {
	t.Parallel()

	remote := tromolmFixture()
	o := newTestOrchestrator(buildFullPipeline(remote))

	opts := catalog.DefaultOptions()
	opts.WarehouseFilter = "13"
	res := o.ImportByReference(context.Background(), "TROMOLM0090L1", opts)

	require.True(t, res.Success, "errors: %+v", res.Errors)
	require.Empty(t, res.Errors)

	assert.Equal(t, 1, res.Product.Inserted)
	assert.Equal(t, 1, res.Brand.Inserted)
	assert.Equal(t, 1, res.Category.Inserted)
	assert.Equal(t, 2, res.Skus.Inserted)

	// Only the second SKU has images; three rows come from it and the
	// first SKU's empty answer does not fail the stage.
	assert.Equal(t, 3, res.Images.Inserted)
	assert.Contains(t, res.Images.Message, "sku 310002")

	// Stock walks both SKUs: two rows pass the warehouse filter, one is
	// filtered out.
	assert.Equal(t, 2, res.Stock.Inserted)
	assert.Equal(t, 1, res.Stock.Filtered)

	// Seller is a reserved name and never persisted.
	assert.Equal(t, 1, res.Attributes.Inserted)
	assert.Equal(t, 1, res.Attributes.Filtered)
}

func TestFullImportRerunUpdatesInsteadOfInserting(t *testing.T) {
	t.Parallel()

	remote := tromolmFixture()
	o := newTestOrchestrator(buildFullPipeline(remote))
	opts := catalog.DefaultOptions()

	first := o.ImportByReference(context.Background(), "TROMOLM0090L1", opts)
	require.True(t, first.Success)

	second := o.ImportByReference(context.Background(), "TROMOLM0090L1", opts)
	require.True(t, second.Success)
	assert.Equal(t, 0, second.Product.Inserted)
	assert.Equal(t, 1, second.Product.Updated)
	assert.Equal(t, 2, second.Skus.Updated)
	assert.Equal(t, 3, second.Images.Updated)
	assert.Equal(t, 3, second.Stock.Updated)
	// Both runs resolve the same local product row.
	assert.Equal(t, first.Product.LocalID, second.Product.LocalID)
}

func TestFullImportMissingProductFailsReference(t *testing.T) {
	t.Parallel()

	remote := tromolmFixture()
	o := newTestOrchestrator(buildFullPipeline(remote))

	res := o.ImportByReference(context.Background(), "NO-SUCH-REF", catalog.DefaultOptions())

	require.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, catalog.StageProduct, res.Errors[0].Stage)
	assert.Equal(t, catalog.KindNotFound, res.Errors[0].Kind)
	assert.False(t, res.Skus.Executed)
}

func TestFullImportShortCircuitsRemoteImageCalls(t *testing.T) {
	t.Parallel()

	remote := tromolmFixture()
	// Give the first SKU images so the second is never queried.
	remote.images[310001] = []catalog.Image{{ID: 9, SkuID: 310001, URL: "https://cdn/9.jpg"}}
	o := newTestOrchestrator(buildFullPipeline(remote))

	res := o.ImportByReference(context.Background(), "TROMOLM0090L1", catalog.DefaultOptions())

	require.True(t, res.Success)
	assert.Equal(t, []int64{310001}, remote.imageCalls)
	assert.Equal(t, 1, res.Images.Inserted)
}
