// Package query translates sanitized filter parameters into structured catalog
// queries and executes them.
//
// Facet semantics: categories form one group, every attribute taxonomy forms its
// own group. Terms inside a group are alternatives (OR), groups are combined with
// AND. Groups without terms are omitted so they never match nothing.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/catalog-filter/pkg/catalog"
	"github.com/Sternrassler/catalog-filter/pkg/filter"
	"github.com/Sternrassler/catalog-filter/pkg/pagination"
)

// Result is one page of products with its pagination metadata.
type Result struct {
	Products   []catalog.ProductSummary `json:"products"`
	Pagination pagination.Meta          `json:"pagination"`
}

// Builder builds and executes catalog queries.
type Builder struct {
	store  catalog.Store
	logger zerolog.Logger
}

// NewBuilder creates a builder executing against store.
func NewBuilder(store catalog.Store, logger zerolog.Logger) *Builder {
	if store == nil {
		panic("catalog store cannot be nil")
	}
	return &Builder{
		store:  store,
		logger: logger,
	}
}

// Build translates p into a structured catalog query. It performs no I/O.
func (b *Builder) Build(p filter.Params) catalog.Query {
	return Build(p)
}

// Build translates p into a structured catalog query.
func Build(p filter.Params) catalog.Query {
	q := catalog.Query{
		Price: catalog.PriceBounds{
			Min: p.MinPrice,
			Max: p.MaxPrice,
		},
		Sort:   SortFields(p.OrderBy, p.Order),
		Limit:  p.PerPage,
		Offset: pagination.Offset(p.Page, p.PerPage),
	}

	if len(p.Categories) > 0 {
		q.Groups = append(q.Groups, catalog.FacetGroup{
			Taxonomy: catalog.CategoryTaxonomy,
			TermIDs:  append([]int64(nil), p.Categories...),
		})
	}
	for _, name := range p.AttributeNames() {
		q.Groups = append(q.Groups, catalog.FacetGroup{
			Taxonomy: name,
			TermIDs:  append([]int64(nil), p.Attributes[name]...),
		})
	}

	return q
}

// SortFields maps a sort key and direction to catalog sort fields.
//
// popularity and rating always sort descending, menu_order always ascending with
// title as secondary key. Product id ascending is appended as the final tie breaker.
func SortFields(orderBy filter.OrderBy, order filter.Order) []catalog.SortField {
	desc := order == filter.OrderDesc

	var fields []catalog.SortField
	switch orderBy {
	case filter.OrderByPrice:
		fields = []catalog.SortField{{Key: catalog.SortPrice, Desc: desc}}
	case filter.OrderByPopularity:
		fields = []catalog.SortField{{Key: catalog.SortTotalSales, Desc: true}}
	case filter.OrderByRating:
		fields = []catalog.SortField{{Key: catalog.SortRating, Desc: true}}
	case filter.OrderByDate:
		fields = []catalog.SortField{{Key: catalog.SortCreated, Desc: desc}}
	case filter.OrderByTitle:
		fields = []catalog.SortField{{Key: catalog.SortTitle, Desc: desc}}
	default:
		fields = []catalog.SortField{
			{Key: catalog.SortMenuOrder},
			{Key: catalog.SortTitle},
		}
	}

	return append(fields, catalog.SortField{Key: catalog.SortID})
}

// Execute runs q against the store and returns the page with pagination metadata.
// Store errors are returned wrapped.
func (b *Builder) Execute(ctx context.Context, q catalog.Query) (Result, error) {
	start := time.Now()
	page, err := b.store.Find(ctx, q)
	QueryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		QueryErrors.Inc()
		return Result{}, fmt.Errorf("find products: %w", err)
	}

	perPage := q.Limit
	currentPage := 1
	if perPage > 0 {
		currentPage = q.Offset/perPage + 1
	}

	products := page.Products
	if products == nil {
		products = []catalog.ProductSummary{}
	}

	b.logger.Debug().
		Int("groups", len(q.Groups)).
		Int("total", page.Total).
		Int("returned", len(products)).
		Dur("duration", time.Since(start)).
		Msg("Catalog query executed")

	return Result{
		Products:   products,
		Pagination: pagination.NewMeta(page.Total, currentPage, perPage),
	}, nil
}

// Run builds and executes the query for p.
func (b *Builder) Run(ctx context.Context, p filter.Params) (Result, error) {
	return b.Execute(ctx, b.Build(p))
}
