package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/catalog-filter/pkg/cache"
	"github.com/Sternrassler/catalog-filter/pkg/catalog"
	"github.com/Sternrassler/catalog-filter/pkg/filter"
	"github.com/Sternrassler/catalog-filter/pkg/query"
)

// KeyFilterOptions is the cache key of the composed /filters response.
const KeyFilterOptions = "filter_options"

// ErrCachingDisabled is returned by cache-only operations when caching is off.
var ErrCachingDisabled = errors.New("caching disabled")

// FilterOptions is everything a client needs to render the filter UI.
type FilterOptions struct {
	Categories []catalog.CategoryNode `json:"categories"`
	Attributes []catalog.Taxonomy     `json:"attributes"`
	PriceRange catalog.PriceRange     `json:"price_range"`
}

// Service handles product and filter requests against a catalog store.
type Service struct {
	store   catalog.Store
	cache   *cache.Cache
	builder *query.Builder
	cfg     Config
	logger  zerolog.Logger
}

// New creates a Service. c may be nil, in which case caching is disabled.
func New(store catalog.Store, c *cache.Cache, cfg Config, logger zerolog.Logger) *Service {
	if store == nil {
		panic("catalog store cannot be nil")
	}
	if c == nil {
		cfg.CachingEnabled = false
		cfg.WarmingEnabled = false
	}
	if cfg.TTL <= 0 {
		cfg.TTL = cache.DefaultTTL
	}
	return &Service{
		store:   store,
		cache:   c,
		builder: query.NewBuilder(store, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Config returns the resolved capability set.
func (s *Service) Config() Config {
	return s.cfg
}

// Products sanitizes raw, serves the matching page from the cache when possible and
// queries the catalog otherwise. Catalog errors are returned; cache failures only
// turn into misses.
func (s *Service) Products(ctx context.Context, raw map[string]any) (query.Result, Status, error) {
	known, err := s.knownTaxonomies(ctx)
	if err != nil {
		Requests.WithLabelValues("products", "error").Inc()
		return query.Result{}, StatusMiss, err
	}
	params := filter.NewSanitizer(known).Sanitize(raw)

	var key string
	if s.cfg.CachingEnabled {
		key = cache.DeriveKey(params)

		var cached query.Result
		if s.cache.GetJSON(ctx, key, &cached) {
			Requests.WithLabelValues("products", string(StatusHit)).Inc()
			s.logger.Debug().Str("key", key).Msg("Products served from cache")
			return cached, StatusHit, nil
		}
	}

	res, err := s.builder.Run(ctx, params)
	if err != nil {
		Requests.WithLabelValues("products", "error").Inc()
		s.logger.Error().Err(err).Msg("Product query failed")
		return query.Result{}, StatusMiss, err
	}

	if s.cfg.CachingEnabled {
		s.cache.SetJSON(ctx, key, res, s.cfg.TTL)
	}

	Requests.WithLabelValues("products", string(StatusMiss)).Inc()
	return res, StatusMiss, nil
}

// Filters returns the category tree, attribute taxonomies and price range.
func (s *Service) Filters(ctx context.Context) (FilterOptions, Status, error) {
	if s.cfg.CachingEnabled {
		var cached FilterOptions
		if s.cache.GetJSON(ctx, KeyFilterOptions, &cached) {
			Requests.WithLabelValues("filters", string(StatusHit)).Inc()
			return cached, StatusHit, nil
		}
	}

	opts, err := s.composeFilters(ctx)
	if err != nil {
		Requests.WithLabelValues("filters", "error").Inc()
		s.logger.Error().Err(err).Msg("Loading filter options failed")
		return FilterOptions{}, StatusMiss, err
	}

	if s.cfg.CachingEnabled {
		s.cache.SetJSON(ctx, KeyFilterOptions, opts, s.cfg.TTL)
	}

	Requests.WithLabelValues("filters", string(StatusMiss)).Inc()
	return opts, StatusMiss, nil
}

func (s *Service) composeFilters(ctx context.Context) (FilterOptions, error) {
	tree, err := s.categoryTree(ctx)
	if err != nil {
		return FilterOptions{}, err
	}
	attrs, err := s.attributes(ctx)
	if err != nil {
		return FilterOptions{}, err
	}
	prices, err := s.priceRange(ctx)
	if err != nil {
		return FilterOptions{}, err
	}
	return FilterOptions{
		Categories: tree,
		Attributes: attrs,
		PriceRange: prices,
	}, nil
}

// Flush invalidates every cached result. When warming is enabled the aggregates are
// recomputed afterwards; a warming failure is logged but does not fail the flush.
func (s *Service) Flush(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Flush(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Cache flush failed")
		return fmt.Errorf("flush cache: %w", err)
	}
	if s.cfg.WarmingEnabled {
		if err := s.Warm(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Cache warming after flush failed")
		}
	}
	return nil
}

// Warm precomputes the catalog aggregates. It is a no-op when warming is disabled.
func (s *Service) Warm(ctx context.Context) error {
	if !s.cfg.WarmingEnabled {
		return nil
	}
	return s.cache.Warm(ctx, s.aggregateSources())
}

// CacheStats reports cache statistics.
func (s *Service) CacheStats(ctx context.Context) (cache.Stats, error) {
	if s.cache == nil {
		return cache.Stats{}, ErrCachingDisabled
	}
	return s.cache.Stats(ctx)
}

// Ping checks that the catalog store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
