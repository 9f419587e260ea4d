package importer

import (
	"context"

	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// CategoryImporter upserts a category by its remote id.
type CategoryImporter struct {
	remote    catalog.RemoteCatalog
	store     catalog.CategoryStore
	admission catalog.Admission
	clock     catalog.Clock
	logger    *zap.Logger
}

// NewCategoryImporter wires a CategoryImporter.
func NewCategoryImporter(
	remote catalog.RemoteCatalog,
	store catalog.CategoryStore,
	admission catalog.Admission,
	clock catalog.Clock,
	logger *zap.Logger,
) *CategoryImporter {
	return &CategoryImporter{
		remote:    remote,
		store:     store,
		admission: admission,
		clock:     clock,
		logger:    logger,
	}
}

// Import fetches and upserts one category.
func (i *CategoryImporter) Import(ctx context.Context, categoryID int64) catalog.EntityResult {
	res := catalog.EntityResult{Stage: catalog.StageCategory, Executed: true}

	category, err := i.remote.CategoryByID(ctx, categoryID)
	if err != nil {
		res.Err = catalog.ClassifyRemote(catalog.StageCategory, err)
		res.Message = res.Err.Message
		i.logger.Warn("category fetch failed", zap.Int64("category_id", categoryID), zap.Error(err))
		return res
	}

	localID, existed, err := findGated(ctx, i.admission, func() (int64, bool, error) {
		return i.store.FindIDByRemoteID(ctx, category.ID)
	})
	if err != nil {
		res.Err = catalog.NewStageError(catalog.StageCategory, catalog.KindStore, "%v", err)
		res.Message = res.Err.Message
		return res
	}

	now := i.clock.Now()
	if existed {
		if err := i.store.Update(ctx, *category, now); err != nil {
			res.Err = catalog.NewStageError(catalog.StageCategory, catalog.KindStore, "%v", err)
			res.Message = res.Err.Message
			return res
		}
		res.Updated = 1
		res.Message = "category updated"
	} else {
		localID, err = i.store.Insert(ctx, *category, now)
		if err != nil {
			res.Err = catalog.NewStageError(catalog.StageCategory, catalog.KindStore, "%v", err)
			res.Message = res.Err.Message
			return res
		}
		res.Inserted = 1
		res.Message = "category inserted"
	}

	res.Success = true
	res.LocalID = localID
	return res
}
