package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/catalog-filter/pkg/filter"
	"github.com/Sternrassler/catalog-filter/pkg/metrics"
	"github.com/Sternrassler/catalog-filter/pkg/search"
)

const (
	headerCache      = "X-Cache"
	headerTotal      = "X-Total-Count"
	headerTotalPages = "X-Total-Pages"
	headerRequestID  = "X-Request-ID"
)

type server struct {
	service *search.Service
	redis   *redis.Client
	logger  zerolog.Logger
}

func newServer(service *search.Service, redisClient *redis.Client, logger zerolog.Logger) *server {
	return &server{
		service: service,
		redis:   redisClient,
		logger:  logger,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /filters", s.filtersHandler)
	mux.HandleFunc("GET /products", s.productsHandler)
	mux.HandleFunc("GET /cache/stats", s.cacheStatsHandler)
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", s.readyHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Gatherer, promhttp.HandlerOpts{}))
	return s.withRequestID(mux)
}

// withRequestID echoes the incoming X-Request-ID or assigns a new one.
func (s *server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		logger := s.logger.With().Str("request_id", id).Logger()
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))

		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *server) productsHandler(w http.ResponseWriter, r *http.Request) {
	raw := filter.RawFromQuery(r.URL.Query())

	res, status, err := s.service.Products(r.Context(), raw)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	w.Header().Set(headerCache, string(status))
	w.Header().Set(headerTotal, strconv.Itoa(res.Pagination.Total))
	w.Header().Set(headerTotalPages, strconv.Itoa(res.Pagination.TotalPages))
	writeJSON(w, http.StatusOK, res)
}

func (s *server) filtersHandler(w http.ResponseWriter, r *http.Request) {
	opts, status, err := s.service.Filters(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	w.Header().Set(headerCache, string(status))
	writeJSON(w, http.StatusOK, opts)
}

func (s *server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.CacheStats(r.Context())
	if errors.Is(err, search.ErrCachingDisabled) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "caching disabled"})
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports whether Redis (when configured) and the catalog are reachable.
func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Redis not ready")
			http.Error(w, "Redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	if err := s.service.Ping(ctx); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Catalog not ready")
		http.Error(w, "Catalog unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// internalError logs err and answers with a generic message.
func (s *server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
