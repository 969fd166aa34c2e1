// Package catalog defines the product catalog store consumed by the query builder,
// together with an in-memory and a PostgreSQL implementation.
package catalog

import "time"

// ProductSummary is the projection of a catalog product returned to clients.
type ProductSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Permalink string `json:"permalink"`
	Price     Price  `json:"prices"`
	Image     *Image `json:"image"`
	Rating    Rating `json:"rating"`
	OnSale    bool   `json:"on_sale"`
	InStock   bool   `json:"in_stock"`
}

// Price holds the numeric prices of a product and its display string.
// Current is the value price filters and price sorting operate on.
type Price struct {
	Current float64  `json:"price"`
	Regular float64  `json:"regular_price"`
	Sale    *float64 `json:"sale_price,omitempty"`
	Display string   `json:"price_html"`
}

// Image is the primary product image.
type Image struct {
	Src    string `json:"src"`
	Srcset string `json:"srcset"`
	Alt    string `json:"alt"`
}

// Rating is the aggregated review score of a product.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Product is a full catalog record as held by a store.
type Product struct {
	ProductSummary

	// Terms maps taxonomy name to the term ids assigned to the product.
	Terms map[string][]int64

	TotalSales int
	MenuOrder  int
	CreatedAt  time.Time
}

// Term is a single taxonomy term (a category or an attribute value).
type Term struct {
	ID       int64  `json:"id"`
	Taxonomy string `json:"taxonomy,omitempty"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID int64  `json:"parent"`
	Count    int    `json:"count"`
}

// Taxonomy is a filterable product attribute with its terms.
type Taxonomy struct {
	Name  string `json:"taxonomy"`
	Label string `json:"name"`
	Terms []Term `json:"terms"`
}

// PriceRange is the lowest and highest current price in the catalog.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
