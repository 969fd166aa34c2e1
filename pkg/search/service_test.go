package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/catalog-filter/internal/testutil"
	"github.com/Sternrassler/catalog-filter/pkg/cache"
	"github.com/Sternrassler/catalog-filter/pkg/catalog"
	"github.com/Sternrassler/catalog-filter/pkg/filter"
	"github.com/Sternrassler/catalog-filter/pkg/query"
)

var errCacheDown = errors.New("cache down")

// brokenStorage fails every operation.
type brokenStorage struct{}

func (brokenStorage) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (brokenStorage) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (brokenStorage) SetNX(context.Context, string, []byte) (bool, error) { return false, errCacheDown }
func (brokenStorage) Delete(context.Context, ...string) error            { return errCacheDown }
func (brokenStorage) Incr(context.Context, string) (int64, error)        { return 0, errCacheDown }
func (brokenStorage) Count(context.Context, string) (int64, error)       { return 0, errCacheDown }
func (brokenStorage) Kind() string                                       { return "broken" }

type fixture struct {
	catalog *catalog.MemoryStore
	store   *testutil.CountingStore
	storage *cache.MemoryStorage
	cache   *cache.Cache
	service *Service
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		catalog: testutil.NewCatalog(),
		storage: cache.NewMemoryStorage(),
	}
	f.store = testutil.NewCountingStore(f.catalog)
	f.cache = cache.New(f.storage, cache.DefaultOptions())
	f.service = New(f.store, f.cache, cfg, zerolog.Nop())
	return f
}

func productIDs(res query.Result) []int64 {
	out := make([]int64, len(res.Products))
	for i, p := range res.Products {
		out[i] = p.ID
	}
	return out
}

func TestNew_Panic(t *testing.T) {
	assert.Panics(t, func() { New(nil, nil, DefaultConfig(), zerolog.Nop()) })
}

func TestNew_NilCacheDisablesCaching(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarmingEnabled = true

	s := New(testutil.NewCatalog(), nil, cfg, zerolog.Nop())

	assert.False(t, s.Config().CachingEnabled)
	assert.False(t, s.Config().WarmingEnabled)
	assert.NoError(t, s.Flush(context.Background()))
	_, err := s.CacheStats(context.Background())
	assert.ErrorIs(t, err, ErrCachingDisabled)
}

func TestProducts_DefaultsThenHit(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	res, status, err := f.service.Products(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusMiss, status)
	assert.Equal(t, []int64{4, 5, 2, 3, 1, 7, 6}, productIDs(res))
	assert.Equal(t, 1, res.Pagination.CurrentPage)
	assert.Equal(t, filter.DefaultPerPage, res.Pagination.PerPage)
	assert.Equal(t, 7, res.Pagination.Total)
	assert.Equal(t, 1, res.Pagination.TotalPages)

	again, status, err := f.service.Products(ctx, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, StatusHit, status)
	assert.Equal(t, res, again)
	assert.Equal(t, int64(1), f.store.Finds())
}

func TestProducts_DuplicateCategoriesShareKey(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	first, status, err := f.service.Products(ctx, map[string]any{
		"categories": []string{"13", "13", "12"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusMiss, status)
	assert.Equal(t, []int64{4, 5, 7, 6}, productIDs(first))

	second, status, err := f.service.Products(ctx, map[string]any{
		"categories": []string{"12", "13"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusHit, status)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), f.store.Finds())
}

func TestProducts_InvertedPriceRange(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	res, _, err := f.service.Products(context.Background(), map[string]any{
		"min_price": "10",
		"max_price": "5",
	})
	require.NoError(t, err)

	assert.Empty(t, res.Products)
	assert.Equal(t, 0, res.Pagination.Total)
	assert.Equal(t, 0, res.Pagination.TotalPages)
}

func TestProducts_FlushServesFreshData(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()
	raw := map[string]any{"categories": "11"}

	before, _, err := f.service.Products(ctx, raw)
	require.NoError(t, err)
	_, status, _ := f.service.Products(ctx, raw)
	require.Equal(t, StatusHit, status)

	updated := testutil.Products()[1]
	updated.Name = "Boot Deluxe"
	f.catalog.Upsert(updated)
	require.NoError(t, f.service.Flush(ctx))

	after, status, err := f.service.Products(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, StatusMiss, status)
	assert.Equal(t, productIDs(before), productIDs(after))
	assert.Equal(t, "Boot Deluxe", after.Products[0].Name)
}

func TestProducts_UnknownTaxonomyIgnored(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	res, _, err := f.service.Products(ctx, map[string]any{
		"attributes": map[string][]string{
			"pa_unknown":     {"1"},
			testutil.TaxSize: {"31"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 1}, productIDs(res))
}

func TestProducts_CachingDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CachingEnabled = false
	f := newFixture(t, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, status, err := f.service.Products(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusMiss, status)
	}
	assert.Equal(t, int64(3), f.store.Finds())

	n, err := f.storage.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n, "nothing may be written when caching is disabled")
}

func TestProducts_CacheFailureStillServes(t *testing.T) {
	store := testutil.NewCountingStore(testutil.NewCatalog())
	s := New(store, cache.New(brokenStorage{}, cache.DefaultOptions()), DefaultConfig(), zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, status, err := s.Products(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, StatusMiss, status)
		assert.Len(t, res.Products, 7)
	}
	assert.Equal(t, int64(2), store.Finds())
}

func TestProducts_CatalogErrorPropagates(t *testing.T) {
	s := New(testutil.FailingStore{}, cache.New(cache.NewMemoryStorage(), cache.DefaultOptions()), DefaultConfig(), zerolog.Nop())

	_, _, err := s.Products(context.Background(), nil)
	assert.ErrorIs(t, err, testutil.ErrCatalogDown)
}

func TestFilters(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	opts, status, err := f.service.Filters(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusMiss, status)

	require.Len(t, opts.Categories, 2)
	assert.Equal(t, testutil.CatClothing, opts.Categories[0].ID)
	require.Len(t, opts.Categories[0].Children, 2)
	assert.Equal(t, testutil.CatShoes, opts.Categories[0].Children[0].ID)
	assert.Equal(t, 3, opts.Categories[0].Children[0].Count)
	assert.Equal(t, testutil.CatAccessories, opts.Categories[1].ID)

	require.Len(t, opts.Attributes, 2)
	assert.Equal(t, testutil.TaxColor, opts.Attributes[0].Name)
	assert.Equal(t, catalog.PriceRange{Min: 10, Max: 100}, opts.PriceRange)

	cached, status, err := f.service.Filters(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusHit, status)
	assert.Equal(t, opts, cached)
}

func TestFilters_CatalogErrorPropagates(t *testing.T) {
	s := New(testutil.FailingStore{}, nil, DefaultConfig(), zerolog.Nop())

	_, _, err := s.Filters(context.Background())
	assert.ErrorIs(t, err, testutil.ErrCatalogDown)
}

func TestFlush_ReturnsVersionError(t *testing.T) {
	s := New(testutil.NewCatalog(), cache.New(brokenStorage{}, cache.DefaultOptions()), DefaultConfig(), zerolog.Nop())

	assert.ErrorIs(t, s.Flush(context.Background()), errCacheDown)
}

func TestWarm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarmingEnabled = true
	f := newFixture(t, cfg)
	ctx := context.Background()

	require.NoError(t, f.service.Warm(ctx))
	for _, key := range cache.AggregateKeys {
		_, ok := f.cache.Get(ctx, key)
		assert.True(t, ok, "aggregate %s not warmed", key)
	}

	// Flush retires the aggregates and warming recomputes them under the new version.
	require.NoError(t, f.service.Flush(ctx))
	for _, key := range cache.AggregateKeys {
		_, ok := f.cache.Get(ctx, key)
		assert.True(t, ok, "aggregate %s not rewarmed after flush", key)
	}
}

func TestWarm_DisabledIsNoop(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	require.NoError(t, f.service.Warm(ctx))
	n, err := f.storage.Count(ctx, "catalog_filter_v1_")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCacheStats(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	ctx := context.Background()

	_, _, err := f.service.Products(ctx, nil)
	require.NoError(t, err)

	stats, err := f.service.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Version)
	// attributes aggregate plus one product page
	assert.Equal(t, int64(2), stats.EntryCount)
	assert.Equal(t, "memory", stats.StorageKind)
}
