package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// StockImporter upserts per-warehouse stock rows for one SKU. An optional
// warehouse filter restricts which balance rows are persisted; filtered-out
// rows are counted separately from imported ones.
type StockImporter struct {
	remote    catalog.RemoteCatalog
	store     catalog.StockStore
	admission catalog.Admission
	clock     catalog.Clock
	logger    *zap.Logger
}

// NewStockImporter wires a StockImporter.
func NewStockImporter(
	remote catalog.RemoteCatalog,
	store catalog.StockStore,
	admission catalog.Admission,
	clock catalog.Clock,
	logger *zap.Logger,
) *StockImporter {
	return &StockImporter{
		remote:    remote,
		store:     store,
		admission: admission,
		clock:     clock,
		logger:    logger,
	}
}

// Import fetches and upserts the stock rows of one SKU. When warehouse is
// non-empty, only rows whose warehouse id or name matches are persisted.
func (i *StockImporter) Import(ctx context.Context, skuID int64, warehouse string) catalog.EntityResult {
	res := catalog.EntityResult{Stage: catalog.StageStock, Executed: true}

	records, err := i.remote.StockBySkuID(ctx, skuID)
	if err != nil {
		res.Err = catalog.ClassifyRemote(catalog.StageStock, err)
		res.Message = res.Err.Message
		i.logger.Warn("stock fetch failed", zap.Int64("sku_id", skuID), zap.Error(err))
		return res
	}

	for _, rec := range records {
		if warehouse != "" && rec.WarehouseID != warehouse && rec.WarehouseName != warehouse {
			res.Filtered++
			continue
		}

		existed, err := existsGated(ctx, i.admission, func() (bool, error) {
			return i.store.Exists(ctx, rec.SkuID, rec.WarehouseID)
		})
		if err != nil {
			res.Err = catalog.NewStageError(catalog.StageStock, catalog.KindStore,
				"stock %d/%s: %v", rec.SkuID, rec.WarehouseID, err)
			res.Message = res.Err.Message
			return res
		}

		now := i.clock.Now()
		if existed {
			err = i.store.Update(ctx, rec, now)
		} else {
			err = i.store.Insert(ctx, rec, now)
		}
		if err != nil {
			res.Err = catalog.NewStageError(catalog.StageStock, catalog.KindStore,
				"stock %d/%s: %v", rec.SkuID, rec.WarehouseID, err)
			res.Message = res.Err.Message
			return res
		}
		if existed {
			res.Updated++
		} else {
			res.Inserted++
		}
	}

	res.Success = true
	res.Message = fmt.Sprintf("%d stock rows imported for sku %d (%d filtered)",
		res.Inserted+res.Updated, skuID, res.Filtered)
	return res
}
