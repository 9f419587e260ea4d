package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// ImageImporter upserts the image set of one SKU. A single SKU id maps to
// zero-to-many remote rows, each upserted independently.
type ImageImporter struct {
	remote    catalog.RemoteCatalog
	store     catalog.ImageStore
	admission catalog.Admission
	clock     catalog.Clock
	logger    *zap.Logger
}

// NewImageImporter wires an ImageImporter.
func NewImageImporter(
	remote catalog.RemoteCatalog,
	store catalog.ImageStore,
	admission catalog.Admission,
	clock catalog.Clock,
	logger *zap.Logger,
) *ImageImporter {
	return &ImageImporter{
		remote:    remote,
		store:     store,
		admission: admission,
		clock:     clock,
		logger:    logger,
	}
}

// Import fetches and upserts all images of one SKU. The result reports
// inserted and updated counts rather than a single entity.
func (i *ImageImporter) Import(ctx context.Context, skuID int64) catalog.EntityResult {
	res := catalog.EntityResult{Stage: catalog.StageImages, Executed: true}

	images, err := i.remote.ImagesBySkuID(ctx, skuID)
	if err != nil {
		res.Err = catalog.ClassifyRemote(catalog.StageImages, err)
		res.Message = res.Err.Message
		i.logger.Warn("image fetch failed", zap.Int64("sku_id", skuID), zap.Error(err))
		return res
	}

	for _, img := range images {
		_, existed, err := findGated(ctx, i.admission, func() (int64, bool, error) {
			return i.store.FindIDByRemoteID(ctx, img.ID)
		})
		if err != nil {
			res.Err = catalog.NewStageError(catalog.StageImages, catalog.KindStore, "image %d: %v", img.ID, err)
			res.Message = res.Err.Message
			return res
		}

		now := i.clock.Now()
		if existed {
			err = i.store.Update(ctx, img, now)
		} else {
			_, err = i.store.Insert(ctx, img, now)
		}
		if err != nil {
			res.Err = catalog.NewStageError(catalog.StageImages, catalog.KindStore, "image %d: %v", img.ID, err)
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
	res.Message = fmt.Sprintf("%d images imported for sku %d", len(images), skuID)
	return res
}
