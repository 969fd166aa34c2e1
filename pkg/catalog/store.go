package catalog

import (
	"context"
	"errors"
)

// CategoryTaxonomy is the taxonomy holding product categories.
const CategoryTaxonomy = "product_cat"

// ErrStoreUnavailable is returned when a store is used before it is connected.
var ErrStoreUnavailable = errors.New("catalog store unavailable")

// SortKey names a product field a query can be ordered by.
type SortKey string

const (
	SortPrice      SortKey = "price"
	SortTotalSales SortKey = "total_sales"
	SortRating     SortKey = "average_rating"
	SortCreated    SortKey = "created_at"
	SortTitle      SortKey = "title"
	SortMenuOrder  SortKey = "menu_order"
	SortID         SortKey = "id"
)

// SortField is one ordering criterion.
type SortField struct {
	Key  SortKey
	Desc bool
}

// FacetGroup matches products carrying any of TermIDs in Taxonomy.
type FacetGroup struct {
	Taxonomy string
	TermIDs  []int64
}

// PriceBounds are inclusive, optional price limits.
type PriceBounds struct {
	Min *float64
	Max *float64
}

// Query is a structured catalog query: every facet group must match (AND),
// terms inside a group are alternatives (OR).
type Query struct {
	Groups []FacetGroup
	Price  PriceBounds
	Sort   []SortField
	Limit  int
	Offset int
}

// Page is one page of matching products plus the total match count ignoring pagination.
type Page struct {
	Products []ProductSummary
	Total    int
}

// Store is the catalog collaborator the query builder executes against.
//
// Find must evaluate the same facet and price predicate for the page and for Total.
type Store interface {
	Find(ctx context.Context, q Query) (Page, error)
	Categories(ctx context.Context) ([]Term, error)
	Attributes(ctx context.Context) ([]Taxonomy, error)
	PriceRange(ctx context.Context) (PriceRange, error)
	Ping(ctx context.Context) error
}
