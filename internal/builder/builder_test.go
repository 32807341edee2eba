package builder

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/northlane/contentpool/internal/domain"
	"github.com/northlane/contentpool/internal/platform/dbctx"
	"github.com/northlane/contentpool/internal/platform/logger"
)

type fakeContentStore struct {
	byCategory map[string][]domain.Item
}

func (f *fakeContentStore) QueryByCategory(_ dbctx.Context, categoryID, afterID string) ([]domain.Item, error) {
	var out []domain.Item
	for _, item := range f.byCategory[categoryID] {
		if afterID == "" || item.ID > afterID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	watermarks map[string]string
	putSets    []domain.Set
	putErr     error
}

func (f *fakeCatalog) GetLatestWatermark(_ dbctx.Context, categoryID string) (string, error) {
	return f.watermarks[categoryID], nil
}

func (f *fakeCatalog) PutBatch(_ dbctx.Context, sets []domain.Set) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.putSets = append(f.putSets, sets...)
	return nil
}

type fakePoolEnqueuer struct {
	enqueued map[string][]string
	err      error
}

func (f *fakePoolEnqueuer) Enqueue(_ context.Context, categoryID string, setIDs []string) error {
	if f.err != nil {
		return f.err
	}
	if f.enqueued == nil {
		f.enqueued = map[string][]string{}
	}
	f.enqueued[categoryID] = append(f.enqueued[categoryID], setIDs...)
	return nil
}

func itemsWithIDs(categoryID string, ids ...string) []domain.Item {
	out := make([]domain.Item, len(ids))
	for i, id := range ids {
		out[i] = domain.Item{ID: id, CategoryID: categoryID, Hash: "hash-" + id}
	}
	return out
}

func newTestBuilder(t *testing.T, store ContentStore, catalog Catalog, pool PoolEnqueuer) *Builder {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	// db left nil: lockCategory no-ops without a Postgres connection.
	return &Builder{store: store, catalog: catalog, pool: pool, log: log}
}

func TestBuilder_PartitionsAndTracksWatermark(t *testing.T) {
	ids := []string{"i01", "i02", "i03", "i04", "i05", "i06", "i07", "i08", "i09", "i10", "i11", "i12", "i13", "i14"}
	store := &fakeContentStore{byCategory: map[string][]domain.Item{"cat-X": itemsWithIDs("cat-X", ids...)}}
	catalog := &fakeCatalog{watermarks: map[string]string{}}
	pool := &fakePoolEnqueuer{}
	b := newTestBuilder(t, store, catalog, pool)

	report := b.buildCategory(context.Background(), "cat-X", 3, 5)
	require.NoError(t, report.Err)
	require.Equal(t, 2, report.SetsEmitted, "floor(14/5)=2")
	require.Equal(t, "i10", report.Watermark)
	require.Len(t, catalog.putSets, 2)
	require.Len(t, pool.enqueued["cat-X"], 2)

	for _, set := range catalog.putSets {
		refs, err := set.ItemRefs()
		require.NoError(t, err)
		require.Len(t, refs, 5)
		require.Equal(t, "i10", set.Watermark)
	}
}

func TestBuilder_ShortfallWhenNotEnoughItems(t *testing.T) {
	store := &fakeContentStore{byCategory: map[string][]domain.Item{
		"cat-X": itemsWithIDs("cat-X", "i01", "i02"),
	}}
	catalog := &fakeCatalog{watermarks: map[string]string{}}
	pool := &fakePoolEnqueuer{}
	b := newTestBuilder(t, store, catalog, pool)

	report := b.buildCategory(context.Background(), "cat-X", 3, 5)
	require.NoError(t, report.Err)
	require.True(t, report.Shortfall)
	require.Zero(t, report.SetsEmitted)
	require.Empty(t, catalog.putSets)
}

func TestBuilder_RespectsNumSetsPerCategoryCap(t *testing.T) {
	ids := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		ids = append(ids, uuid.NewString())
	}
	// ULID-style ordering isn't required here: the fake store returns the
	// random UUIDs unsorted, and buildCategory sorts them by id itself.
	store := &fakeContentStore{byCategory: map[string][]domain.Item{"cat-X": itemsWithIDs("cat-X", ids...)}}
	catalog := &fakeCatalog{watermarks: map[string]string{}}
	pool := &fakePoolEnqueuer{}
	b := newTestBuilder(t, store, catalog, pool)

	report := b.buildCategory(context.Background(), "cat-X", 2, 5)
	require.NoError(t, report.Err)
	require.Equal(t, 2, report.SetsEmitted, "30/5=6 possible but capped at numSetsPerCategory=2")
}

func TestBuilder_CatalogWriteFailureAbortsBatchAndSkipsEnqueue(t *testing.T) {
	store := &fakeContentStore{byCategory: map[string][]domain.Item{
		"cat-X": itemsWithIDs("cat-X", "i01", "i02", "i03", "i04", "i05"),
	}}
	catalog := &fakeCatalog{watermarks: map[string]string{}, putErr: errBoom}
	pool := &fakePoolEnqueuer{}
	b := newTestBuilder(t, store, catalog, pool)

	report := b.buildCategory(context.Background(), "cat-X", 1, 5)
	require.Error(t, report.Err)
	require.Empty(t, pool.enqueued["cat-X"])
}

func TestBuilder_PoolEnqueueFailureIsLoggedNotFatal(t *testing.T) {
	store := &fakeContentStore{byCategory: map[string][]domain.Item{
		"cat-X": itemsWithIDs("cat-X", "i01", "i02", "i03", "i04", "i05"),
	}}
	catalog := &fakeCatalog{watermarks: map[string]string{}}
	pool := &fakePoolEnqueuer{err: errBoom}
	b := newTestBuilder(t, store, catalog, pool)

	report := b.buildCategory(context.Background(), "cat-X", 1, 5)
	require.NoError(t, report.Err, "pool errors must not fail the batch; the catalog write already succeeded")
	require.Equal(t, 1, report.SetsEmitted)
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
