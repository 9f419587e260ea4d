package importer

import (
	"context"

	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// ProductImporter resolves a product from its caller-supplied reference and
// upserts it by remote id. The product is the hard dependency of every
// downstream stage.
type ProductImporter struct {
	remote    catalog.RemoteCatalog
	store     catalog.ProductStore
	admission catalog.Admission
	clock     catalog.Clock
	logger    *zap.Logger
}

// NewProductImporter wires a ProductImporter.
func NewProductImporter(
	remote catalog.RemoteCatalog,
	store catalog.ProductStore,
	admission catalog.Admission,
	clock catalog.Clock,
	logger *zap.Logger,
) *ProductImporter {
	return &ProductImporter{
		remote:    remote,
		store:     store,
		admission: admission,
		clock:     clock,
		logger:    logger,
	}
}

// Import fetches and upserts the product for one reference. The raw product
// payload is returned alongside the result so the orchestrator can feed the
// dependent stages.
func (i *ProductImporter) Import(ctx context.Context, reference string) (catalog.EntityResult, *catalog.Product) {
	res := catalog.EntityResult{Stage: catalog.StageProduct, Executed: true}

	product, err := i.remote.ProductByReference(ctx, reference)
	if err != nil {
		res.Err = catalog.ClassifyRemote(catalog.StageProduct, err)
		res.Message = res.Err.Message
		i.logger.Warn("product fetch failed", zap.String("reference", reference), zap.Error(err))
		return res, nil
	}

	localID, existed, err := findGated(ctx, i.admission, func() (int64, bool, error) {
		return i.store.FindIDByRemoteID(ctx, product.ID)
	})
	if err != nil {
		res.Err = catalog.NewStageError(catalog.StageProduct, catalog.KindStore, "%v", err)
		res.Message = res.Err.Message
		return res, nil
	}

	now := i.clock.Now()
	if existed {
		if err := i.store.Update(ctx, *product, now); err != nil {
			res.Err = catalog.NewStageError(catalog.StageProduct, catalog.KindStore, "%v", err)
			res.Message = res.Err.Message
			return res, nil
		}
		res.Updated = 1
		res.Message = "product updated"
	} else {
		localID, err = i.store.Insert(ctx, *product, now)
		if err != nil {
			res.Err = catalog.NewStageError(catalog.StageProduct, catalog.KindStore, "%v", err)
			res.Message = res.Err.Message
			return res, nil
		}
		res.Inserted = 1
		res.Message = "product inserted"
	}

	res.Success = true
	res.LocalID = localID
	i.logger.Debug("product imported",
		zap.String("reference", reference),
		zap.Int64("remote_id", product.ID),
		zap.Int64("local_id", localID),
	)
	return res, product
}
