// Package orchestrator composes the entity importers into the per-reference
// import pipeline and its batch entry points.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
	"github.com/brandgate/catalog-sync/internal/telemetry"
)

// ProductImporter resolves and upserts a product from its reference.
type ProductImporter interface {
	Import(ctx context.Context, reference string) (catalog.EntityResult, *catalog.Product)
}

// BrandImporter upserts a brand by remote id.
type BrandImporter interface {
	Import(ctx context.Context, brandID int64) catalog.EntityResult
}

// CategoryImporter upserts a category by remote id.
type CategoryImporter interface {
	Import(ctx context.Context, categoryID int64) catalog.EntityResult
}

// SkuImporter upserts a product's SKUs, preserving the supplier's order.
type SkuImporter interface {
	Import(ctx context.Context, productID int64) (catalog.EntityResult, []catalog.Sku)
}

// ImageImporter upserts the image set of one SKU.
type ImageImporter interface {
	Import(ctx context.Context, skuID int64) catalog.EntityResult
}

// StockImporter upserts the per-warehouse stock rows of one SKU.
type StockImporter interface {
	Import(ctx context.Context, skuID int64, warehouse string) catalog.EntityResult
}

// AttributesImporter replaces a product's attribute set.
type AttributesImporter interface {
	Import(ctx context.Context, productID int64) catalog.EntityResult
}

// Importers bundles the seven stage implementations.
type Importers struct {
	Product    ProductImporter
	Brand      BrandImporter
	Category   CategoryImporter
	Skus       SkuImporter
	Images     ImageImporter
	Stock      StockImporter
	Attributes AttributesImporter
}

// pipeline executes the fixed stage chain for a single reference:
// Product -> {Brand, Category} -> Skus -> {Images, Stock} -> Attributes.
// The dependency graph is explicit: each step declares what it needs
// instead of relying on nested conditionals.
type pipeline struct {
	imps   Importers
	opts   catalog.Options
	logger *zap.Logger
}

type pipelineState struct {
	result  *catalog.ImportResult
	product *catalog.Product
	skus    []catalog.Sku
	// halted is set when a stage fails and the options do not allow
	// continuing; remaining stages are reported as not executed.
	halted bool
}

type step struct {
	stage catalog.Stage
	// ready reports whether the step's dependencies are satisfied and,
	// when not, why.
	ready func(*pipelineState) (bool, string)
	run   func(context.Context, *pipelineState)
}

func (p *pipeline) steps() []step {
	productReady := func(st *pipelineState) (bool, string) {
		if st.product == nil {
			return false, "product not imported"
		}
		return true, ""
	}
	skusReady := func(st *pipelineState) (bool, string) {
		if !st.result.Skus.Success {
			return false, "skus not imported"
		}
		return true, ""
	}

	return []step{
		{
			stage: catalog.StageProduct,
			ready: func(*pipelineState) (bool, string) { return true, "" },
			run:   p.runProduct,
		},
		{
			stage: catalog.StageBrand,
			ready: func(st *pipelineState) (bool, string) {
				if ok, reason := productReady(st); !ok {
					return false, reason
				}
				if st.product.BrandID == 0 {
					return false, "product has no brand id"
				}
				return true, ""
			},
			run: p.runBrand,
		},
		{
			stage: catalog.StageCategory,
			ready: func(st *pipelineState) (bool, string) {
				if ok, reason := productReady(st); !ok {
					return false, reason
				}
				if st.product.CategoryID == 0 {
					return false, "product has no category id"
				}
				return true, ""
			},
			run: p.runCategory,
		},
		{
			stage: catalog.StageSkus,
			ready: productReady,
			run:   p.runSkus,
		},
		{
			stage: catalog.StageImages,
			ready: skusReady,
			run:   p.runImages,
		},
		{
			stage: catalog.StageStock,
			ready: skusReady,
			run:   p.runStock,
		},
		{
			stage: catalog.StageAttributes,
			ready: productReady,
			run:   p.runAttributes,
		},
	}
}

// run executes every enabled step in order and fills the result in st.
func (p *pipeline) run(ctx context.Context, st *pipelineState) {
	for _, s := range p.steps() {
		sub := st.result.StageResult(s.stage)

		if !p.opts.StageEnabled(s.stage) {
			sub.Stage = s.stage
			sub.Skipped = true
			sub.Message = "disabled by options"
			continue
		}
		if st.halted {
			sub.Stage = s.stage
			sub.Skipped = true
			sub.Message = "not executed: earlier stage failed"
			telemetry.ObserveStage(string(s.stage), "not_executed")
			continue
		}
		if ok, reason := s.ready(st); !ok {
			sub.Stage = s.stage
			sub.Skipped = true
			sub.Message = reason
			// A missing upstream id is a warning, not an error.
			sub.Err = catalog.NewStageError(s.stage, catalog.KindDependencyMissing, "%s", reason)
			p.logger.Warn("stage skipped",
				zap.String("stage", string(s.stage)),
				zap.String("reason", reason),
			)
			telemetry.ObserveStage(string(s.stage), "skipped")
			continue
		}

		s.run(ctx, st)

		if sub.Err != nil && sub.Err.Kind != catalog.KindDependencyMissing {
			st.result.RecordError(sub.Err)
			telemetry.ObserveStage(string(s.stage), "failed")
			if s.stage == catalog.StageProduct || !p.opts.SkipExisting {
				st.halted = true
			}
			continue
		}
		telemetry.ObserveStage(string(s.stage), "ok")
	}
}

func (p *pipeline) runProduct(ctx context.Context, st *pipelineState) {
	res, product := p.imps.Product.Import(ctx, st.result.Reference)
	st.result.Product = res
	st.product = product
	if !res.Success {
		st.result.Message = fmt.Sprintf("product stage failed: %s", res.Message)
	}
}

func (p *pipeline) runBrand(ctx context.Context, st *pipelineState) {
	st.result.Brand = p.imps.Brand.Import(ctx, st.product.BrandID)
}

func (p *pipeline) runCategory(ctx context.Context, st *pipelineState) {
	st.result.Category = p.imps.Category.Import(ctx, st.product.CategoryID)
}

func (p *pipeline) runSkus(ctx context.Context, st *pipelineState) {
	res, skus := p.imps.Skus.Import(ctx, st.product.ID)
	st.result.Skus = res
	st.skus = skus
}

// runImages walks the SKUs in supplier order and stops at the first SKU
// that yields images. The supplier duplicates the same merchandising set
// across a product's SKUs, so one SKU's images cover the product.
func (p *pipeline) runImages(ctx context.Context, st *pipelineState) {
	sub := &st.result.Images
	sub.Stage = catalog.StageImages
	sub.Executed = true

	found := false
	failures := 0
	for _, sku := range st.skus {
		if found {
			p.logger.Debug("image import skipped, images already found",
				zap.String("reference", st.result.Reference),
				zap.Int64("sku_id", sku.ID),
			)
			continue
		}
		res := p.imps.Images.Import(ctx, sku.ID)
		if res.Err != nil {
			// An empty image set answers the question; only real
			// faults count against the stage.
			if res.Err.Kind == catalog.KindNotFound {
				continue
			}
			failures++
			sub.Err = res.Err
			continue
		}
		sub.Inserted += res.Inserted
		sub.Updated += res.Updated
		if res.Inserted+res.Updated > 0 {
			found = true
			sub.Message = fmt.Sprintf("%d images imported from sku %d", res.Inserted+res.Updated, sku.ID)
		}
	}

	sub.Success = failures == 0
	if sub.Message == "" {
		sub.Message = "no images found"
	}
}

// runStock imports every SKU's stock; unlike images there is no
// short-circuit.
func (p *pipeline) runStock(ctx context.Context, st *pipelineState) {
	sub := &st.result.Stock
	sub.Stage = catalog.StageStock
	sub.Executed = true

	failures := 0
	for _, sku := range st.skus {
		res := p.imps.Stock.Import(ctx, sku.ID, p.opts.WarehouseFilter)
		if res.Err != nil {
			if res.Err.Kind == catalog.KindNotFound {
				continue
			}
			failures++
			sub.Err = res.Err
			continue
		}
		sub.Inserted += res.Inserted
		sub.Updated += res.Updated
		sub.Filtered += res.Filtered
	}

	sub.Success = failures == 0
	sub.Message = fmt.Sprintf("%d stock rows imported (%d filtered)", sub.Inserted+sub.Updated, sub.Filtered)
}

func (p *pipeline) runAttributes(ctx context.Context, st *pipelineState) {
	st.result.Attributes = p.imps.Attributes.Import(ctx, st.product.ID)
}
