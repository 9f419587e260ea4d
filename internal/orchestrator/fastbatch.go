package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
	"github.com/brandgate/catalog-sync/internal/telemetry"
)

// Group sizing for the fast batch path.
const (
	DefaultGroupSize = 10
	MaxGroupSize     = 10

	defaultReferencePause = 500 * time.Millisecond
	defaultGroupPause     = 3 * time.Second
)

// FastConfig tunes grouping and pacing of the fast batch path.
type FastConfig struct {
	GroupSize      int
	ReferencePause time.Duration
	GroupPause     time.Duration
}

// FastBatchOrchestrator runs the same per-reference chain as
// BatchOrchestrator but keeps in-process caches of already imported brands
// and categories and processes references in fixed-size groups with pauses
// in between.
//
// The caches are guarded by their own lock, so concurrent callers do not
// race, but results within one batch are only coherent when a single
// caller drives the instance; construct one instance per batch when in
// doubt. ClearCache is the only reset path.
type FastBatchOrchestrator struct {
	inner          *BatchOrchestrator
	brandCache     *resultCache
	categoryCache  *resultCache
	products       catalog.ProductStore
	admission      catalog.Admission
	clock          catalog.Clock
	groupSize      int
	referencePause time.Duration
	groupPause     time.Duration
	logger         *zap.Logger
}

// NewFast constructs a FastBatchOrchestrator over the given importers. The
// brand and category importers are wrapped with cache decorators; every
// other stage behaves exactly as in the sequential orchestrator.
func NewFast(
	imps Importers,
	products catalog.ProductStore,
	admission catalog.Admission,
	clock catalog.Clock,
	publisher catalog.Publisher,
	topic string,
	cfg FastConfig,
	logger *zap.Logger,
) *FastBatchOrchestrator {
	brandCache := newResultCache("brand")
	categoryCache := newResultCache("category")
	imps.Brand = &cachedBrandImporter{inner: imps.Brand, cache: brandCache}
	imps.Category = &cachedCategoryImporter{inner: imps.Category, cache: categoryCache}

	groupSize := cfg.GroupSize
	if groupSize <= 0 || groupSize > MaxGroupSize {
		groupSize = DefaultGroupSize
	}
	referencePause := cfg.ReferencePause
	if referencePause <= 0 {
		referencePause = defaultReferencePause
	}
	groupPause := cfg.GroupPause
	if groupPause <= 0 {
		groupPause = defaultGroupPause
	}

	return &FastBatchOrchestrator{
		inner:          New(imps, clock, publisher, topic, logger),
		brandCache:     brandCache,
		categoryCache:  categoryCache,
		products:       products,
		admission:      admission,
		clock:          clock,
		groupSize:      groupSize,
		referencePause: referencePause,
		groupPause:     groupPause,
		logger:         logger,
	}
}

// ImportByReference runs the cached per-reference chain once.
func (o *FastBatchOrchestrator) ImportByReference(ctx context.Context, reference string, opts catalog.Options) catalog.ImportResult {
	return o.inner.ImportByReference(ctx, reference, opts)
}

// ImportMany splits the references into fixed-size groups and processes
// them one at a time, pausing between references and longer between
// groups. Submission order is preserved in the result list.
func (o *FastBatchOrchestrator) ImportMany(ctx context.Context, references []string, opts catalog.Options) []catalog.ImportResult {
	results := make([]catalog.ImportResult, 0, len(references))

	for groupStart := 0; groupStart < len(references); groupStart += o.groupSize {
		groupEnd := groupStart + o.groupSize
		if groupEnd > len(references) {
			groupEnd = len(references)
		}
		group := references[groupStart:groupEnd]
		o.logger.Info("processing reference group",
			zap.Int("group_start", groupStart),
			zap.Int("group_size", len(group)),
		)

		for i, ref := range group {
			results = append(results, o.inner.ImportByReference(ctx, ref, opts))
			if i < len(group)-1 {
				o.clock.Sleep(ctx, o.referencePause)
			}
		}

		if groupEnd < len(references) {
			o.clock.Sleep(ctx, o.groupPause)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// ExistingReferences reports which of the given references already have a
// local product row. Callers use it to decide skip-existing policies
// before submitting a batch; the orchestrator does not enforce any policy
// itself.
func (o *FastBatchOrchestrator) ExistingReferences(ctx context.Context, references []string) ([]string, error) {
	if err := o.admission.Acquire(ctx); err != nil {
		return nil, err
	}
	defer o.admission.Release()
	return o.products.ExistingReferences(ctx, references)
}

// ClearCache drops both entity caches for a fresh run.
func (o *FastBatchOrchestrator) ClearCache() {
	o.brandCache.Clear()
	o.categoryCache.Clear()
}

// resultCache maps a remote entity id to the last successful import
// result. Entries are never invalidated during the orchestrator's
// lifetime.
type resultCache struct {
	mu      sync.Mutex
	entity  string
	entries map[int64]catalog.EntityResult
}

func newResultCache(entity string) *resultCache {
	return &resultCache{
		entity:  entity,
		entries: make(map[int64]catalog.EntityResult),
	}
}

func (c *resultCache) Get(id int64) (catalog.EntityResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.entries[id]
	if ok {
		telemetry.ObserveCacheHit(c.entity)
	}
	return res, ok
}

func (c *resultCache) Put(id int64, res catalog.EntityResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = res
}

func (c *resultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int64]catalog.EntityResult)
}

// cachedBrandImporter skips the remote fetch and store write entirely on a
// cache hit; the cache is populated only on success.
type cachedBrandImporter struct {
	inner BrandImporter
	cache *resultCache
}

func (c *cachedBrandImporter) Import(ctx context.Context, brandID int64) catalog.EntityResult {
	if res, ok := c.cache.Get(brandID); ok {
		return res
	}
	res := c.inner.Import(ctx, brandID)
	if res.Success {
		c.cache.Put(brandID, res)
	}
	return res
}

type cachedCategoryImporter struct {
	inner CategoryImporter
	cache *resultCache
}

func (c *cachedCategoryImporter) Import(ctx context.Context, categoryID int64) catalog.EntityResult {
	if res, ok := c.cache.Get(categoryID); ok {
		return res
	}
	res := c.inner.Import(ctx, categoryID)
	if res.Success {
		c.cache.Put(categoryID, res)
	}
	return res
}
