package importer

import (
	"context"

	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// BrandImporter upserts a brand by its remote id. Brands are shared across
// products and may be imported many times; the upsert is idempotent.
type BrandImporter struct {
	remote    catalog.RemoteCatalog
	store     catalog.BrandStore
	admission catalog.Admission
	clock     catalog.Clock
	logger    *zap.Logger
}

// NewBrandImporter wires a BrandImporter.
func NewBrandImporter(
	remote catalog.RemoteCatalog,
	store catalog.BrandStore,
	admission catalog.Admission,
	clock catalog.Clock,
	logger *zap.Logger,
) *BrandImporter {
	return &BrandImporter{
		remote:    remote,
		store:     store,
		admission: admission,
		clock:     clock,
		logger:    logger,
	}
}

// Import fetches and upserts one brand.
func (i *BrandImporter) Import(ctx context.Context, brandID int64) catalog.EntityResult {
	res := catalog.EntityResult{Stage: catalog.StageBrand, Executed: true}

	brand, err := i.remote.BrandByID(ctx, brandID)
	if err != nil {
		res.Err = catalog.ClassifyRemote(catalog.StageBrand, err)
		res.Message = res.Err.Message
		i.logger.Warn("brand fetch failed", zap.Int64("brand_id", brandID), zap.Error(err))
		return res
	}

	localID, existed, err := findGated(ctx, i.admission, func() (int64, bool, error) {
		return i.store.FindIDByRemoteID(ctx, brand.ID)
	})
	if err != nil {
		res.Err = catalog.NewStageError(catalog.StageBrand, catalog.KindStore, "%v", err)
		res.Message = res.Err.Message
		return res
	}

	now := i.clock.Now()
	if existed {
		if err := i.store.Update(ctx, *brand, now); err != nil {
			res.Err = catalog.NewStageError(catalog.StageBrand, catalog.KindStore, "%v", err)
			res.Message = res.Err.Message
			return res
		}
		res.Updated = 1
		res.Message = "brand updated"
	} else {
		localID, err = i.store.Insert(ctx, *brand, now)
		if err != nil {
			res.Err = catalog.NewStageError(catalog.StageBrand, catalog.KindStore, "%v", err)
			res.Message = res.Err.Message
			return res
		}
		res.Inserted = 1
		res.Message = "brand inserted"
	}

	res.Success = true
	res.LocalID = localID
	return res
}
