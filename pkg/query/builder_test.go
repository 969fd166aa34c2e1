package query

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/catalog-filter/internal/testutil"
	"github.com/Sternrassler/catalog-filter/pkg/catalog"
	"github.com/Sternrassler/catalog-filter/pkg/filter"
)

func ptr(f float64) *float64 { return &f }

func ids(products []catalog.ProductSummary) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func newTestBuilder(store catalog.Store) *Builder {
	return NewBuilder(store, zerolog.Nop())
}

func TestNewBuilder_Panic(t *testing.T) {
	assert.Panics(t, func() { NewBuilder(nil, zerolog.Nop()) })
}

func TestBuild_Groups(t *testing.T) {
	p := filter.DefaultParams()
	p.Categories = []int64{5, 3}
	p.Attributes = map[string][]int64{
		"pa_size":  {31},
		"pa_color": {20, 21},
		"pa_empty": {},
	}

	q := Build(p)

	assert.Equal(t, []catalog.FacetGroup{
		{Taxonomy: catalog.CategoryTaxonomy, TermIDs: []int64{5, 3}},
		{Taxonomy: "pa_color", TermIDs: []int64{20, 21}},
		{Taxonomy: "pa_size", TermIDs: []int64{31}},
	}, q.Groups)
}

func TestBuild_NoFacets(t *testing.T) {
	q := Build(filter.DefaultParams())

	assert.Empty(t, q.Groups)
	assert.Nil(t, q.Price.Min)
	assert.Nil(t, q.Price.Max)
	assert.Equal(t, filter.DefaultPerPage, q.Limit)
	assert.Equal(t, 0, q.Offset)
}

func TestBuild_PriceAndPaging(t *testing.T) {
	p := filter.DefaultParams()
	p.MinPrice = ptr(10)
	p.Page = 3
	p.PerPage = 20

	q := Build(p)

	require.NotNil(t, q.Price.Min)
	assert.Equal(t, 10.0, *q.Price.Min)
	assert.Nil(t, q.Price.Max)
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, 40, q.Offset)
}

func TestSortFields(t *testing.T) {
	id := catalog.SortField{Key: catalog.SortID}

	tests := []struct {
		orderBy filter.OrderBy
		order   filter.Order
		want    []catalog.SortField
	}{
		{filter.OrderByPrice, filter.OrderAsc, []catalog.SortField{{Key: catalog.SortPrice}, id}},
		{filter.OrderByPrice, filter.OrderDesc, []catalog.SortField{{Key: catalog.SortPrice, Desc: true}, id}},
		{filter.OrderByPopularity, filter.OrderAsc, []catalog.SortField{{Key: catalog.SortTotalSales, Desc: true}, id}},
		{filter.OrderByRating, filter.OrderAsc, []catalog.SortField{{Key: catalog.SortRating, Desc: true}, id}},
		{filter.OrderByDate, filter.OrderDesc, []catalog.SortField{{Key: catalog.SortCreated, Desc: true}, id}},
		{filter.OrderByTitle, filter.OrderAsc, []catalog.SortField{{Key: catalog.SortTitle}, id}},
		{filter.OrderByMenuOrder, filter.OrderDesc, []catalog.SortField{{Key: catalog.SortMenuOrder}, {Key: catalog.SortTitle}, id}},
	}

	for _, tt := range tests {
		t.Run(string(tt.orderBy)+"_"+string(tt.order), func(t *testing.T) {
			assert.Equal(t, tt.want, SortFields(tt.orderBy, tt.order))
		})
	}
}

func TestBuilder_RunSortOrders(t *testing.T) {
	b := newTestBuilder(testutil.NewCatalog())
	ctx := context.Background()

	tests := []struct {
		name    string
		orderBy filter.OrderBy
		order   filter.Order
		want    []int64
	}{
		{"price asc", filter.OrderByPrice, filter.OrderAsc, []int64{5, 4, 3, 6, 1, 2, 7}},
		{"price desc", filter.OrderByPrice, filter.OrderDesc, []int64{7, 2, 1, 6, 3, 4, 5}},
		{"popularity ignores order", filter.OrderByPopularity, filter.OrderAsc, []int64{1, 4, 5, 2, 3, 6, 7}},
		{"rating ignores order", filter.OrderByRating, filter.OrderAsc, []int64{7, 3, 1, 4, 2, 6, 5}},
		{"date asc", filter.OrderByDate, filter.OrderAsc, []int64{7, 1, 2, 3, 4, 5, 6}},
		{"date desc", filter.OrderByDate, filter.OrderDesc, []int64{6, 5, 4, 3, 2, 1, 7}},
		{"title asc", filter.OrderByTitle, filter.OrderAsc, []int64{7, 4, 6, 2, 5, 1, 3}},
		{"menu order ties by title", filter.OrderByMenuOrder, filter.OrderDesc, []int64{4, 5, 2, 3, 1, 7, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filter.DefaultParams()
			p.OrderBy = tt.orderBy
			p.Order = tt.order

			res, err := b.Run(ctx, p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(res.Products))
		})
	}
}

func TestBuilder_RunMenuOrderIsStable(t *testing.T) {
	b := newTestBuilder(testutil.NewCatalog())
	ctx := context.Background()

	first, err := b.Run(ctx, filter.DefaultParams())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := b.Run(ctx, filter.DefaultParams())
		require.NoError(t, err)
		assert.Equal(t, ids(first.Products), ids(again.Products))
	}
}

func TestBuilder_RunFacetComposition(t *testing.T) {
	b := newTestBuilder(testutil.NewCatalog())

	p := filter.DefaultParams()
	p.Categories = []int64{testutil.CatShoes, testutil.CatHats}
	p.Attributes = map[string][]int64{testutil.TaxColor: {testutil.ColorRed}}

	res, err := b.Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 3, 1}, ids(res.Products))
	assert.Equal(t, 3, res.Pagination.Total)
}

func TestBuilder_RunPriceInclusive(t *testing.T) {
	b := newTestBuilder(testutil.NewCatalog())

	p := filter.DefaultParams()
	p.MinPrice = ptr(15)
	p.MaxPrice = ptr(50)

	res, err := b.Run(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []int64{4, 3, 1, 6}, ids(res.Products))
	for _, prod := range res.Products {
		assert.GreaterOrEqual(t, prod.Price.Current, 15.0)
		assert.LessOrEqual(t, prod.Price.Current, 50.0)
	}
}

func TestBuilder_RunInvertedPriceMatchesNothing(t *testing.T) {
	b := newTestBuilder(testutil.NewCatalog())

	p := filter.DefaultParams()
	p.MinPrice = ptr(10)
	p.MaxPrice = ptr(5)

	res, err := b.Run(context.Background(), p)
	require.NoError(t, err)

	assert.Empty(t, res.Products)
	assert.NotNil(t, res.Products)
	assert.Equal(t, 0, res.Pagination.Total)
	assert.Equal(t, 0, res.Pagination.TotalPages)
}

func TestBuilder_RunPagination(t *testing.T) {
	b := newTestBuilder(testutil.NewCatalog())

	tests := []struct {
		page, perPage int
		want          []int64
		totalPages    int
	}{
		{page: 1, perPage: 3, want: []int64{4, 5, 2}, totalPages: 3},
		{page: 3, perPage: 3, want: []int64{6}, totalPages: 3},
		{page: 4, perPage: 3, want: []int64{}, totalPages: 3},
		{page: 1, perPage: 7, want: []int64{4, 5, 2, 3, 1, 7, 6}, totalPages: 1},
	}

	for _, tt := range tests {
		p := filter.DefaultParams()
		p.Page = tt.page
		p.PerPage = tt.perPage

		res, err := b.Run(context.Background(), p)
		require.NoError(t, err)

		assert.Equal(t, tt.want, ids(res.Products))
		assert.Equal(t, 7, res.Pagination.Total)
		assert.Equal(t, tt.totalPages, res.Pagination.TotalPages)
		assert.Equal(t, tt.page, res.Pagination.CurrentPage)
		assert.Equal(t, tt.perPage, res.Pagination.PerPage)
	}
}

func TestBuilder_ExecutePropagatesStoreError(t *testing.T) {
	b := newTestBuilder(testutil.FailingStore{})

	_, err := b.Run(context.Background(), filter.DefaultParams())
	assert.ErrorIs(t, err, testutil.ErrCatalogDown)
}
