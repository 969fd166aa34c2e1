package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"slices"

	"github.com/Sternrassler/catalog-filter/pkg/filter"
)

// ProductQueryPrefix namespaces product query keys from other cache uses.
const ProductQueryPrefix = "products_"

// canonicalParams is the order-independent form of filter.Params that gets hashed.
// Only structs and slices are used so that encoding/json output is stable.
type canonicalParams struct {
	Categories []int64          `json:"categories"`
	Attributes []canonicalGroup `json:"attributes"`
	MinPrice   *float64         `json:"min_price"`
	MaxPrice   *float64         `json:"max_price"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	OrderBy    filter.OrderBy   `json:"orderby"`
	Order      filter.Order     `json:"order"`
}

type canonicalGroup struct {
	Taxonomy string  `json:"taxonomy"`
	Terms    []int64 `json:"terms"`
}

// DeriveKey generates the cache key for a product query.
// Format: products_<md5(canonical JSON)>
//
// Category ids and the term ids of every attribute group are sorted and deduplicated,
// attribute groups are ordered by taxonomy name and empty groups are dropped, so
// semantically equal parameter sets always produce the same key.
func DeriveKey(p filter.Params) string {
	c := canonicalParams{
		Categories: sortedUnique(p.Categories),
		Attributes: make([]canonicalGroup, 0, len(p.Attributes)),
		MinPrice:   p.MinPrice,
		MaxPrice:   p.MaxPrice,
		Page:       p.Page,
		PerPage:    p.PerPage,
		OrderBy:    p.OrderBy,
		Order:      p.Order,
	}
	for _, name := range p.AttributeNames() {
		c.Attributes = append(c.Attributes, canonicalGroup{
			Taxonomy: name,
			Terms:    sortedUnique(p.Attributes[name]),
		})
	}

	// Marshalling slices of ints, strings and float pointers cannot fail.
	data, _ := json.Marshal(c)
	sum := md5.Sum(data)
	return ProductQueryPrefix + hex.EncodeToString(sum[:])
}

func sortedUnique(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	slices.Sort(out)
	return slices.Compact(out)
}
