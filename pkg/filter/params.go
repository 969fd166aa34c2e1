// Package filter turns untrusted request input into typed product filter parameters.
//
// Sanitization is the single boundary where raw input becomes a Params value.
// It never fails: malformed or missing fields fall back to safe defaults.
package filter

import (
	"sort"
	"strings"
)

// OrderBy is the product sort key.
type OrderBy string

const (
	OrderByDate       OrderBy = "date"
	OrderByPrice      OrderBy = "price"
	OrderByPopularity OrderBy = "popularity"
	OrderByRating     OrderBy = "rating"
	OrderByTitle      OrderBy = "title"
	OrderByMenuOrder  OrderBy = "menu_order"
)

// Order is the sort direction.
type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

// Defaults applied by the sanitizer.
const (
	DefaultPage    = 1
	DefaultPerPage = 12
	MaxPerPage     = 100
)

// Params is the sanitized filter request.
// A Params value is not mutated after Sanitize returns it.
type Params struct {
	Categories []int64
	Attributes map[string][]int64
	MinPrice   *float64
	MaxPrice   *float64
	Page       int
	PerPage    int
	OrderBy    OrderBy
	Order      Order
}

// DefaultParams returns the parameters used for an empty request.
func DefaultParams() Params {
	return Params{
		Attributes: map[string][]int64{},
		Page:       DefaultPage,
		PerPage:    DefaultPerPage,
		OrderBy:    OrderByMenuOrder,
		Order:      OrderAsc,
	}
}

// Offset returns the number of products skipped before the current page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// AttributeNames returns the taxonomies with at least one selected term, sorted.
func (p Params) AttributeNames() []string {
	names := make([]string, 0, len(p.Attributes))
	for name, terms := range p.Attributes {
		if len(terms) == 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasFacets reports whether any category or attribute term is selected.
func (p Params) HasFacets() bool {
	return len(p.Categories) > 0 || len(p.AttributeNames()) > 0
}

var validOrderBy = map[OrderBy]struct{}{
	OrderByDate:       {},
	OrderByPrice:      {},
	OrderByPopularity: {},
	OrderByRating:     {},
	OrderByTitle:      {},
	OrderByMenuOrder:  {},
}

// ParseOrderBy matches s case-insensitively against the known sort keys.
// Unknown values fall back to OrderByMenuOrder.
func ParseOrderBy(s string) OrderBy {
	ob := OrderBy(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validOrderBy[ob]; ok {
		return ob
	}
	return OrderByMenuOrder
}

// ParseOrder returns OrderDesc for any casing of "desc", OrderAsc otherwise.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), string(OrderDesc)) {
		return OrderDesc
	}
	return OrderAsc
}
