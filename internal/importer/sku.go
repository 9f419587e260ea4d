package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// SkuImporter upserts every SKU owned by a product. The SKU list is
// returned in the order the supplier reports it; the image short-circuit
// heuristic depends on that order.
type SkuImporter struct {
	remote    catalog.RemoteCatalog
	store     catalog.SkuStore
	admission catalog.Admission
	clock     catalog.Clock
	logger    *zap.Logger
}

// NewSkuImporter wires a SkuImporter.
func NewSkuImporter(
	remote catalog.RemoteCatalog,
	store catalog.SkuStore,
	admission catalog.Admission,
	clock catalog.Clock,
	logger *zap.Logger,
) *SkuImporter {
	return &SkuImporter{
		remote:    remote,
		store:     store,
		admission: admission,
		clock:     clock,
		logger:    logger,
	}
}

// Import fetches and upserts the SKUs of one product.
func (i *SkuImporter) Import(ctx context.Context, productID int64) (catalog.EntityResult, []catalog.Sku) {
	res := catalog.EntityResult{Stage: catalog.StageSkus, Executed: true}

	skus, err := i.remote.SkusByProductID(ctx, productID)
	if err != nil {
		res.Err = catalog.ClassifyRemote(catalog.StageSkus, err)
		res.Message = res.Err.Message
		i.logger.Warn("sku fetch failed", zap.Int64("product_id", productID), zap.Error(err))
		return res, nil
	}

	for _, sku := range skus {
		_, existed, err := findGated(ctx, i.admission, func() (int64, bool, error) {
			return i.store.FindIDByRemoteID(ctx, sku.ID)
		})
		if err != nil {
			res.Err = catalog.NewStageError(catalog.StageSkus, catalog.KindStore, "sku %d: %v", sku.ID, err)
			res.Message = res.Err.Message
			return res, nil
		}

		now := i.clock.Now()
		if existed {
			err = i.store.Update(ctx, sku, now)
		} else {
			_, err = i.store.Insert(ctx, sku, now)
		}
		if err != nil {
			res.Err = catalog.NewStageError(catalog.StageSkus, catalog.KindStore, "sku %d: %v", sku.ID, err)
			res.Message = res.Err.Message
			return res, nil
		}
		if existed {
			res.Updated++
		} else {
			res.Inserted++
		}
	}

	res.Success = true
	res.Message = fmt.Sprintf("%d skus imported", len(skus))
	return res, skus
}
