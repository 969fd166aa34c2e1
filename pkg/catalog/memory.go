package catalog

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore is an in-process catalog. It is safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[int64]Product
	categories []Term
	attributes []Taxonomy
}

// NewMemoryStore creates a store holding the given products and taxonomies.
func NewMemoryStore(products []Product, categories []Term, attributes []Taxonomy) *MemoryStore {
	s := &MemoryStore{
		products:   make(map[int64]Product, len(products)),
		categories: slices.Clone(categories),
		attributes: slices.Clone(attributes),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

// Upsert inserts or replaces a product.
func (s *MemoryStore) Upsert(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// Delete removes a product. Deleting an unknown id is a no-op.
func (s *MemoryStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

// Find returns the requested page of products matching q and the total match count.
func (s *MemoryStore) Find(ctx context.Context, q Query) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	s.mu.RLock()
	matched := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if Matches(p, q) {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(matched, func(a, b Product) int {
		return compareProducts(a, b, q.Sort)
	})

	page := Page{Total: len(matched), Products: []ProductSummary{}}
	if q.Offset >= len(matched) {
		return page, nil
	}
	end := len(matched)
	if q.Limit > 0 {
		end = min(q.Offset+q.Limit, len(matched))
	}
	for _, p := range matched[q.Offset:end] {
		page.Products = append(page.Products, p.ProductSummary)
	}
	return page, nil
}

// Matches reports whether p satisfies every facet group and the price bounds of q.
// Empty groups impose no restriction.
func Matches(p Product, q Query) bool {
	for _, g := range q.Groups {
		if len(g.TermIDs) == 0 {
			continue
		}
		if !hasAnyTerm(p.Terms[g.Taxonomy], g.TermIDs) {
			return false
		}
	}
	if q.Price.Min != nil && p.Price.Current < *q.Price.Min {
		return false
	}
	if q.Price.Max != nil && p.Price.Current > *q.Price.Max {
		return false
	}
	return true
}

func hasAnyTerm(assigned, wanted []int64) bool {
	for _, id := range wanted {
		if slices.Contains(assigned, id) {
			return true
		}
	}
	return false
}

func compareProducts(a, b Product, fields []SortField) int {
	for _, f := range fields {
		var c int
		switch f.Key {
		case SortPrice:
			c = cmp.Compare(a.Price.Current, b.Price.Current)
		case SortTotalSales:
			c = cmp.Compare(a.TotalSales, b.TotalSales)
		case SortRating:
			c = cmp.Compare(a.Rating.Average, b.Rating.Average)
		case SortCreated:
			c = a.CreatedAt.Compare(b.CreatedAt)
		case SortTitle:
			c = strings.Compare(a.Name, b.Name)
		case SortMenuOrder:
			c = cmp.Compare(a.MenuOrder, b.MenuOrder)
		case SortID:
			c = cmp.Compare(a.ID, b.ID)
		}
		if f.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}

// Categories returns the category terms with their product counts.
func (s *MemoryStore) Categories(ctx context.Context) ([]Term, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countTerms(CategoryTaxonomy, s.categories), nil
}

// Attributes returns the attribute taxonomies with their terms and product counts.
func (s *MemoryStore) Attributes(ctx context.Context) ([]Taxonomy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Taxonomy, 0, len(s.attributes))
	for _, tax := range s.attributes {
		out = append(out, Taxonomy{
			Name:  tax.Name,
			Label: tax.Label,
			Terms: s.countTerms(tax.Name, tax.Terms),
		})
	}
	return out, nil
}

func (s *MemoryStore) countTerms(taxonomy string, terms []Term) []Term {
	out := make([]Term, len(terms))
	for i, t := range terms {
		t.Taxonomy = taxonomy
		t.Count = 0
		for _, p := range s.products {
			if slices.Contains(p.Terms[taxonomy], t.ID) {
				t.Count++
			}
		}
		out[i] = t
	}
	return out
}

// PriceRange returns the lowest and highest current price, or zeros for an empty catalog.
func (s *MemoryStore) PriceRange(ctx context.Context) (PriceRange, error) {
	if err := ctx.Err(); err != nil {
		return PriceRange{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r PriceRange
	first := true
	for _, p := range s.products {
		price := p.Price.Current
		if first {
			r.Min, r.Max = price, price
			first = false
			continue
		}
		r.Min = min(r.Min, price)
		r.Max = max(r.Max, price)
	}
	return r, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
