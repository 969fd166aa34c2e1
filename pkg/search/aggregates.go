package search

import (
	"context"
	"fmt"

	"github.com/Sternrassler/catalog-filter/pkg/cache"
	"github.com/Sternrassler/catalog-filter/pkg/catalog"
)

// cachedAggregate returns the aggregate stored under key, loading and caching it on a miss.
func cachedAggregate[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	var v T
	if s.cfg.CachingEnabled && s.cache.GetJSON(ctx, key, &v) {
		return v, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, fmt.Errorf("load %s: %w", key, err)
	}

	if s.cfg.CachingEnabled {
		s.cache.SetJSON(ctx, key, v, s.cfg.TTL)
	}
	return v, nil
}

func (s *Service) categories(ctx context.Context) ([]catalog.Term, error) {
	return cachedAggregate(ctx, s, cache.KeyCategoriesFlat, s.store.Categories)
}

func (s *Service) categoryTree(ctx context.Context) ([]catalog.CategoryNode, error) {
	return cachedAggregate(ctx, s, cache.KeyCategoriesHierarchical, func(ctx context.Context) ([]catalog.CategoryNode, error) {
		terms, err := s.categories(ctx)
		if err != nil {
			return nil, err
		}
		return catalog.BuildTree(terms), nil
	})
}

func (s *Service) attributes(ctx context.Context) ([]catalog.Taxonomy, error) {
	return cachedAggregate(ctx, s, cache.KeyAttributes, s.store.Attributes)
}

func (s *Service) priceRange(ctx context.Context) (catalog.PriceRange, error) {
	return cachedAggregate(ctx, s, cache.KeyPriceRange, s.store.PriceRange)
}

// knownTaxonomies lists the attribute taxonomies the sanitizer accepts.
func (s *Service) knownTaxonomies(ctx context.Context) ([]string, error) {
	attrs, err := s.attributes(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(attrs))
	for i, a := range attrs {
		names[i] = a.Name
	}
	return names, nil
}

// aggregateSources computes every aggregate straight from the store.
func (s *Service) aggregateSources() map[string]cache.AggregateFunc {
	return map[string]cache.AggregateFunc{
		cache.KeyCategoriesFlat: func(ctx context.Context) (any, error) {
			return s.store.Categories(ctx)
		},
		cache.KeyCategoriesHierarchical: func(ctx context.Context) (any, error) {
			terms, err := s.store.Categories(ctx)
			if err != nil {
				return nil, err
			}
			return catalog.BuildTree(terms), nil
		},
		cache.KeyAttributes: func(ctx context.Context) (any, error) {
			return s.store.Attributes(ctx)
		},
		cache.KeyPriceRange: func(ctx context.Context) (any, error) {
			return s.store.PriceRange(ctx)
		},
	}
}
