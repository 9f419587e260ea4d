package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
)

type countingEntity struct {
	res   catalog.EntityResult
	calls []int64
}

func (s *countingEntity) Import(_ context.Context, id int64) catalog.EntityResult {
	s.calls = append(s.calls, id)
	return s.res
}

type fakeProductLookup struct {
	existing []string
	err      error
	got      []string
}

func (f *fakeProductLookup) FindIDByRemoteID(context.Context, int64) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeProductLookup) Insert(context.Context, catalog.Product, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeProductLookup) Update(context.Context, catalog.Product, time.Time) error {
	return nil
}

func (f *fakeProductLookup) ExistingReferences(_ context.Context, refs []string) ([]string, error) {
	f.got = refs
	return f.existing, f.err
}

type countingAdmission struct {
	acquired int
	released int
}

func (a *countingAdmission) Acquire(context.Context) error {
	a.acquired++
	return nil
}

func (a *countingAdmission) Release() { a.released++ }

func (a *countingAdmission) Status() catalog.AdmissionStatus {
	return catalog.AdmissionStatus{}
}

func newFastOrchestrator(imps Importers, clock catalog.Clock, cfg FastConfig) (*FastBatchOrchestrator, *fakeProductLookup, *countingAdmission) {
	products := &fakeProductLookup{}
	adm := &countingAdmission{}
	return NewFast(imps, products, adm, clock, nil, "", cfg, zap.NewNop()), products, adm
}

func TestSharedBrandIsFetchedOnce(t *testing.T) {
	t.Parallel()

	// Two references resolving to distinct products that share one brand.
	product := &catalog.Product{ID: 100, Reference: "REF", BrandID: 500, CategoryID: 900}
	imps := happyImporters(product, []catalog.Sku{{ID: 310001}})
	brand := &countingEntity{res: okStage(catalog.StageBrand)}
	category := &countingEntity{res: okStage(catalog.StageCategory)}
	imps.Brand = brand
	imps.Category = category

	o, _, _ := newFastOrchestrator(imps, &recordingClock{now: time.Unix(1700000000, 0)}, FastConfig{})

	results := o.ImportMany(context.Background(), []string{"REF-A", "REF-B"}, catalog.DefaultOptions())
	require.Len(t, results, 2)
	require.True(t, results[0].Success)
	require.True(t, results[1].Success)

	// The second reference was served from the cache.
	assert.Equal(t, []int64{500}, brand.calls)
	assert.Equal(t, []int64{900}, category.calls)
	assert.Equal(t, results[0].Brand, results[1].Brand)
}

func TestFailedBrandIsNotCached(t *testing.T) {
	t.Parallel()

	product := &catalog.Product{ID: 100, Reference: "REF", BrandID: 500, CategoryID: 900}
	imps := happyImporters(product, []catalog.Sku{{ID: 310001}})
	brand := &countingEntity{res: failedStage(catalog.StageBrand, catalog.KindRemote)}
	imps.Brand = brand

	o, _, _ := newFastOrchestrator(imps, &recordingClock{now: time.Unix(1700000000, 0)}, FastConfig{})

	o.ImportMany(context.Background(), []string{"REF-A", "REF-B"}, catalog.DefaultOptions())

	// Failure means the next reference retries the fetch.
	assert.Equal(t, []int64{500, 500}, brand.calls)
}

func TestClearCacheForcesRefetch(t *testing.T) {
	t.Parallel()

	product := &catalog.Product{ID: 100, Reference: "REF", BrandID: 500, CategoryID: 900}
	imps := happyImporters(product, []catalog.Sku{{ID: 310001}})
	brand := &countingEntity{res: okStage(catalog.StageBrand)}
	imps.Brand = brand

	o, _, _ := newFastOrchestrator(imps, &recordingClock{now: time.Unix(1700000000, 0)}, FastConfig{})

	o.ImportByReference(context.Background(), "REF-A", catalog.DefaultOptions())
	o.ClearCache()
	o.ImportByReference(context.Background(), "REF-B", catalog.DefaultOptions())

	assert.Equal(t, []int64{500, 500}, brand.calls)
}

func TestImportManyPausesBetweenReferencesAndGroups(t *testing.T) {
	t.Parallel()

	product := &catalog.Product{ID: 100, Reference: "REF", BrandID: 500, CategoryID: 900}
	imps := happyImporters(product, []catalog.Sku{{ID: 310001}})
	clock := &recordingClock{now: time.Unix(1700000000, 0)}

	o, _, _ := newFastOrchestrator(imps, clock, FastConfig{
		GroupSize:      3,
		ReferencePause: 100 * time.Millisecond,
		GroupPause:     time.Second,
	})

	refs := []string{"A", "B", "C", "D", "E"}
	results := o.ImportMany(context.Background(), refs, catalog.DefaultOptions())
	require.Len(t, results, 5)
	for i, ref := range refs {
		assert.Equal(t, ref, results[i].Reference)
	}

	// Group one: A .1s B .1s C, then 1s, group two: D .1s E.
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		100 * time.Millisecond,
		time.Second,
		100 * time.Millisecond,
	}, clock.sleeps)
}

func TestGroupSizeIsCappedAtMaximum(t *testing.T) {
	t.Parallel()

	product := &catalog.Product{ID: 100, Reference: "REF", BrandID: 500, CategoryID: 900}
	imps := happyImporters(product, []catalog.Sku{{ID: 310001}})
	clock := &recordingClock{now: time.Unix(1700000000, 0)}

	o, _, _ := newFastOrchestrator(imps, clock, FastConfig{
		GroupSize:      50,
		ReferencePause: time.Millisecond,
		GroupPause:     time.Minute,
	})

	// 11 references with a capped group of 10 must force a group break.
	refs := make([]string, 11)
	for i := range refs {
		refs[i] = "R"
	}
	o.ImportMany(context.Background(), refs, catalog.DefaultOptions())

	var groupPauses int
	for _, d := range clock.sleeps {
		if d == time.Minute {
			groupPauses++
		}
	}
	assert.Equal(t, 1, groupPauses)
}

func TestExistingReferencesIsAdmissionGated(t *testing.T) {
	t.Parallel()

	product := &catalog.Product{ID: 100, Reference: "REF", BrandID: 500, CategoryID: 900}
	imps := happyImporters(product, []catalog.Sku{{ID: 310001}})
	o, products, adm := newFastOrchestrator(imps, &recordingClock{now: time.Unix(1700000000, 0)}, FastConfig{})
	products.existing = []string{"REF-A"}

	existing, err := o.ExistingReferences(context.Background(), []string{"REF-A", "REF-B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"REF-A"}, existing)
	assert.Equal(t, []string{"REF-A", "REF-B"}, products.got)
	assert.Equal(t, 1, adm.acquired)
	assert.Equal(t, 1, adm.released)
}

func TestExistingReferencesPropagatesStoreError(t *testing.T) {
	t.Parallel()

	product := &catalog.Product{ID: 100, Reference: "REF", BrandID: 500, CategoryID: 900}
	imps := happyImporters(product, []catalog.Sku{{ID: 310001}})
	o, products, _ := newFastOrchestrator(imps, &recordingClock{now: time.Unix(1700000000, 0)}, FastConfig{})
	products.err = errors.New("connection reset")

	_, err := o.ExistingReferences(context.Background(), []string{"REF-A"})
	require.Error(t, err)
}
