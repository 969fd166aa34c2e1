// Package testutil provides a fixture catalog and store doubles for tests.
package testutil

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/catalog-filter/pkg/catalog"
)

// Fixture taxonomy names.
const (
	TaxColor = "pa_color"
	TaxSize  = "pa_size"
)

// Fixture term ids.
const (
	CatClothing    int64 = 10
	CatShoes       int64 = 11
	CatHats        int64 = 12
	CatAccessories int64 = 13

	ColorRed   int64 = 20
	ColorBlue  int64 = 21
	ColorGreen int64 = 22

	SizeSmall int64 = 30
	SizeLarge int64 = 31
)

// ErrCatalogDown is returned by FailingStore.
var ErrCatalogDown = errors.New("catalog down")

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func product(id int64, name string, price float64, menuOrder, sales int, rating float64, day int, terms map[string][]int64) catalog.Product {
	return catalog.Product{
		ProductSummary: catalog.ProductSummary{
			ID:        id,
			Name:      name,
			Slug:      slugify(name),
			Permalink: "https://shop.example/product/" + slugify(name),
			Price: catalog.Price{
				Current: price,
				Regular: price,
				Display: "$" + trimFloat(price),
			},
			Image:   &catalog.Image{Src: "https://cdn.example/" + slugify(name) + ".jpg", Alt: name},
			Rating:  catalog.Rating{Average: rating, Count: int(rating * 2)},
			InStock: true,
		},
		Terms:      terms,
		TotalSales: sales,
		MenuOrder:  menuOrder,
		CreatedAt:  epoch.AddDate(0, 0, day),
	}
}

// Products returns the fixture products.
//
//	id name    category     color  size   price menu sales rating day
//	1  Runner  Shoes        Red    Large  50    2    100   4.5    1
//	2  Boot    Shoes        Blue   Small  80    1    20    3.0    2
//	3  Sandal  Shoes        Red    Small  20    1    5     4.9    3
//	4  Beanie  Hats         Blue   -      15    0    60    4.0    4
//	5  Cap     Hats         Red    Large  10    0    40    0      5
//	6  Belt    Accessories  Green  -      25    3    1     2.0    6
//	7  Apron   Accessories  Red    -      100   3    0     5.0    0
func Products() []catalog.Product {
	return []catalog.Product{
		product(1, "Runner", 50, 2, 100, 4.5, 1, map[string][]int64{
			catalog.CategoryTaxonomy: {CatShoes}, TaxColor: {ColorRed}, TaxSize: {SizeLarge}}),
		product(2, "Boot", 80, 1, 20, 3.0, 2, map[string][]int64{
			catalog.CategoryTaxonomy: {CatShoes}, TaxColor: {ColorBlue}, TaxSize: {SizeSmall}}),
		product(3, "Sandal", 20, 1, 5, 4.9, 3, map[string][]int64{
			catalog.CategoryTaxonomy: {CatShoes}, TaxColor: {ColorRed}, TaxSize: {SizeSmall}}),
		product(4, "Beanie", 15, 0, 60, 4.0, 4, map[string][]int64{
			catalog.CategoryTaxonomy: {CatHats}, TaxColor: {ColorBlue}}),
		product(5, "Cap", 10, 0, 40, 0, 5, map[string][]int64{
			catalog.CategoryTaxonomy: {CatHats}, TaxColor: {ColorRed}, TaxSize: {SizeLarge}}),
		product(6, "Belt", 25, 3, 1, 2.0, 6, map[string][]int64{
			catalog.CategoryTaxonomy: {CatAccessories}, TaxColor: {ColorGreen}}),
		product(7, "Apron", 100, 3, 0, 5.0, 0, map[string][]int64{
			catalog.CategoryTaxonomy: {CatAccessories}, TaxColor: {ColorRed}}),
	}
}

// Categories returns the fixture category terms. Shoes and Hats are children of Clothing.
func Categories() []catalog.Term {
	return []catalog.Term{
		{ID: CatClothing, Name: "Clothing", Slug: "clothing"},
		{ID: CatShoes, Name: "Shoes", Slug: "shoes", ParentID: CatClothing},
		{ID: CatHats, Name: "Hats", Slug: "hats", ParentID: CatClothing},
		{ID: CatAccessories, Name: "Accessories", Slug: "accessories"},
	}
}

// Attributes returns the fixture attribute taxonomies.
func Attributes() []catalog.Taxonomy {
	return []catalog.Taxonomy{
		{Name: TaxColor, Label: "Color", Terms: []catalog.Term{
			{ID: ColorRed, Name: "Red", Slug: "red"},
			{ID: ColorBlue, Name: "Blue", Slug: "blue"},
			{ID: ColorGreen, Name: "Green", Slug: "green"},
		}},
		{Name: TaxSize, Label: "Size", Terms: []catalog.Term{
			{ID: SizeSmall, Name: "Small", Slug: "small"},
			{ID: SizeLarge, Name: "Large", Slug: "large"},
		}},
	}
}

// NewCatalog returns a memory store loaded with the fixture.
func NewCatalog() *catalog.MemoryStore {
	return catalog.NewMemoryStore(Products(), Categories(), Attributes())
}

// CountingStore wraps a store and counts calls to Find.
type CountingStore struct {
	catalog.Store
	finds atomic.Int64
}

// NewCountingStore wraps s.
func NewCountingStore(s catalog.Store) *CountingStore {
	return &CountingStore{Store: s}
}

// Find delegates to the wrapped store.
func (c *CountingStore) Find(ctx context.Context, q catalog.Query) (catalog.Page, error) {
	c.finds.Add(1)
	return c.Store.Find(ctx, q)
}

// Finds returns the number of Find calls so far.
func (c *CountingStore) Finds() int64 {
	return c.finds.Load()
}

// FailingStore fails every call with ErrCatalogDown.
type FailingStore struct{}

func (FailingStore) Find(context.Context, catalog.Query) (catalog.Page, error) {
	return catalog.Page{}, ErrCatalogDown
}

func (FailingStore) Categories(context.Context) ([]catalog.Term, error) {
	return nil, ErrCatalogDown
}

func (FailingStore) Attributes(context.Context) ([]catalog.Taxonomy, error) {
	return nil, ErrCatalogDown
}

func (FailingStore) PriceRange(context.Context) (catalog.PriceRange, error) {
	return catalog.PriceRange{}, ErrCatalogDown
}

func (FailingStore) Ping(context.Context) error {
	return ErrCatalogDown
}
