package filter

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Raw input keys understood by Sanitize.
const (
	KeyCategories = "categories"
	KeyAttributes = "attributes"
	KeyMinPrice   = "min_price"
	KeyMaxPrice   = "max_price"
	KeyPage       = "page"
	KeyPerPage    = "per_page"
	KeyOrderBy    = "orderby"
	KeyOrder      = "order"
)

// Sanitizer normalizes raw request input against the catalog's known attribute taxonomies.
type Sanitizer struct {
	known map[string]struct{}
}

// NewSanitizer creates a sanitizer that accepts only the given attribute taxonomies.
func NewSanitizer(knownTaxonomies []string) *Sanitizer {
	known := make(map[string]struct{}, len(knownTaxonomies))
	for _, name := range knownTaxonomies {
		known[name] = struct{}{}
	}
	return &Sanitizer{known: known}
}

// Sanitize converts raw input into Params. It never fails.
func (s *Sanitizer) Sanitize(raw map[string]any) Params {
	p := DefaultParams()
	if raw == nil {
		return p
	}

	p.Categories = toIDs(raw[KeyCategories])
	p.Attributes = s.attributes(raw[KeyAttributes])
	p.MinPrice = toPrice(raw[KeyMinPrice])
	p.MaxPrice = toPrice(raw[KeyMaxPrice])

	if page, ok := toInt(raw[KeyPage]); ok {
		p.Page = max(page, 1)
	}
	if perPage, ok := toInt(raw[KeyPerPage]); ok {
		p.PerPage = min(max(perPage, 1), MaxPerPage)
	}
	if ob, ok := toString(raw[KeyOrderBy]); ok {
		p.OrderBy = ParseOrderBy(ob)
	}
	if o, ok := toString(raw[KeyOrder]); ok {
		p.Order = ParseOrder(o)
	}

	return p
}

// attributes keeps known taxonomies with at least one valid term id.
func (s *Sanitizer) attributes(v any) map[string][]int64 {
	out := map[string][]int64{}

	add := func(name string, terms any) {
		name = strings.TrimSpace(name)
		if _, ok := s.known[name]; !ok {
			return
		}
		if ids := toIDs(terms); len(ids) > 0 {
			out[name] = ids
		}
	}

	switch m := v.(type) {
	case map[string]any:
		for name, terms := range m {
			add(name, terms)
		}
	case map[string][]string:
		for name, terms := range m {
			add(name, terms)
		}
	case map[string][]int64:
		for name, terms := range m {
			add(name, terms)
		}
	case map[string][]int:
		for name, terms := range m {
			add(name, terms)
		}
	case url.Values:
		for name, terms := range m {
			add(name, terms)
		}
	}

	return out
}

// toIDs coerces v into non-negative integer ids, dropping invalid values and duplicates.
// Comma-separated strings are split.
func toIDs(v any) []int64 {
	var candidates []any
	switch vals := v.(type) {
	case nil:
		return nil
	case []any:
		candidates = vals
	case []string:
		for _, s := range vals {
			candidates = append(candidates, s)
		}
	case []int:
		for _, n := range vals {
			candidates = append(candidates, n)
		}
	case []int64:
		for _, n := range vals {
			candidates = append(candidates, n)
		}
	case []float64:
		for _, n := range vals {
			candidates = append(candidates, n)
		}
	default:
		candidates = []any{vals}
	}

	ids := make([]int64, 0, len(candidates))
	seen := make(map[int64]struct{}, len(candidates))
	push := func(id int64) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, c := range candidates {
		if s, ok := c.(string); ok && strings.Contains(s, ",") {
			for _, part := range strings.Split(s, ",") {
				if id, ok := toID(part); ok {
					push(id)
				}
			}
			continue
		}
		if id, ok := toID(c); ok {
			push(id)
		}
	}
	return ids
}

func toID(v any) (int64, bool) {
	n, ok := toInt64(v)
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

func toInt(v any) (int, bool) {
	n, ok := toInt64(v)
	if !ok {
		return 0, false
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	if n < math.MinInt32 {
		n = math.MinInt32
	}
	return int(n), true
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case float32:
		return toInt64(float64(n))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		return 0, false
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	case []string:
		if len(n) == 0 {
			return 0, false
		}
		return toInt64(n[0])
	default:
		return 0, false
	}
}

// toPrice returns a finite, non-negative price or nil.
func toPrice(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	case []string:
		if len(n) == 0 {
			return nil
		}
		return toPrice(n[0])
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	return &f
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []string:
		if len(s) == 0 {
			return "", false
		}
		return s[0], true
	case OrderBy:
		return string(s), true
	case Order:
		return string(s), true
	default:
		return "", false
	}
}
