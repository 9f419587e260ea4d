package importer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

// Attribute names that must never be persisted. Seller and category are
// managed by dedicated tables, not the free-form attribute set.
var reservedAttributeNames = map[string]struct{}{
	"Seller":    {},
	"Categoria": {},
}

// AttributesImporter replaces a product's attribute set on each run:
// reserved names are filtered out and attributes absent from the new fetch
// are removed locally.
type AttributesImporter struct {
	remote    catalog.RemoteCatalog
	store     catalog.AttributeStore
	admission catalog.Admission
	clock     catalog.Clock
	logger    *zap.Logger
}

// NewAttributesImporter wires an AttributesImporter.
func NewAttributesImporter(
	remote catalog.RemoteCatalog,
	store catalog.AttributeStore,
	admission catalog.Admission,
	clock catalog.Clock,
	logger *zap.Logger,
) *AttributesImporter {
	return &AttributesImporter{
		remote:    remote,
		store:     store,
		admission: admission,
		clock:     clock,
		logger:    logger,
	}
}

// Import fetches the product's attributes and replaces the persisted set.
func (i *AttributesImporter) Import(ctx context.Context, productID int64) catalog.EntityResult {
	res := catalog.EntityResult{Stage: catalog.StageAttributes, Executed: true}

	attrs, err := i.remote.AttributesByProductID(ctx, productID)
	if err != nil {
		res.Err = catalog.ClassifyRemote(catalog.StageAttributes, err)
		res.Message = res.Err.Message
		i.logger.Warn("attribute fetch failed", zap.Int64("product_id", productID), zap.Error(err))
		return res
	}

	kept := make([]catalog.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		if _, reserved := reservedAttributeNames[attr.Name]; reserved {
			res.Filtered++
			continue
		}
		kept = append(kept, attr)
	}

	if err := i.store.DeleteByProductID(ctx, productID); err != nil {
		res.Err = catalog.NewStageError(catalog.StageAttributes, catalog.KindStore, "%v", err)
		res.Message = res.Err.Message
		return res
	}

	now := i.clock.Now()
	for _, attr := range kept {
		if err := i.store.Insert(ctx, attr, now); err != nil {
			res.Err = catalog.NewStageError(catalog.StageAttributes, catalog.KindStore,
				"attribute %d: %v", attr.AttributeID, err)
			res.Message = res.Err.Message
			return res
		}
		res.Inserted++
	}

	res.Success = true
	res.Message = fmt.Sprintf("%d attributes replaced (%d reserved filtered)", res.Inserted, res.Filtered)
	return res
}
