package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/catalog-filter/pkg/cache"
	"github.com/Sternrassler/catalog-filter/pkg/catalog"
	"github.com/Sternrassler/catalog-filter/pkg/events"
	"github.com/Sternrassler/catalog-filter/pkg/logging"
	"github.com/Sternrassler/catalog-filter/pkg/search"
)

type config struct {
	Port        string
	RedisURL    string
	DatabaseURL string
	Search      search.Config
	Namespace   string
	Kafka       events.Config
	Logging     logging.Config
}

func loadConfig() config {
	cfg := config{
		Port:        getEnv("PORT", "8080"),
		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Namespace:   getEnv("CACHE_NAMESPACE", cache.DefaultNamespace),
		Search:      search.DefaultConfig(),
		Kafka:       events.DefaultConfig(),
		Logging:     logging.DefaultConfig(),
	}

	cfg.Search.CachingEnabled = getEnvBool("CACHE_ENABLED", cfg.Search.CachingEnabled)
	cfg.Search.WarmingEnabled = getEnvBool("CACHE_WARMING", cfg.Search.WarmingEnabled)
	cfg.Search.TTL = getEnvDuration("CACHE_TTL", cfg.Search.TTL)

	cfg.Kafka.Brokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", cfg.Kafka.GroupID)
	cfg.Kafka.Topics = splitList(getEnv("KAFKA_TOPIC", events.DefaultTopic))

	cfg.Logging.Level = logging.LogLevel(getEnv("LOG_LEVEL", string(cfg.Logging.Level)))
	cfg.Logging.Pretty = getEnvBool("LOG_PRETTY", cfg.Logging.Pretty)

	return cfg
}

func main() {
	cfg := loadConfig()
	logging.Setup(cfg.Logging)
	logger := logging.NewLogger("filter-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openCatalog(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open catalog")
	}
	defer closeStore()

	redisClient, err := openRedis(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var c *cache.Cache
	if cfg.Search.CachingEnabled {
		var storage cache.Storage = cache.NewMemoryStorage()
		if redisClient != nil {
			storage = cache.NewRedisStorage(redisClient)
		}
		c = cache.New(storage, cache.Options{
			Namespace: cfg.Namespace,
			TTL:       cfg.Search.TTL,
			Logger:    logging.NewLogger("cache"),
		})
	}

	service := search.New(store, c, cfg.Search, logging.NewLogger("search"))
	if err := service.Warm(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial cache warming failed")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err := events.NewConsumer(cfg.Kafka, service, logging.NewLogger("events"))
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create product event consumer")
		}
		consumer.Start(ctx)
		defer func() {
			if err := consumer.Stop(); err != nil {
				logger.Error().Err(err).Msg("Failed to stop product event consumer")
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newServer(service, redisClient, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", srv.Addr).
		Bool("caching", service.Config().CachingEnabled).
		Bool("warming", service.Config().WarmingEnabled).
		Dur("ttl", service.Config().TTL).
		Msg("Starting catalog filter server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
	logger.Info().Msg("Server stopped")
}

// openCatalog connects to PostgreSQL when dsn is set and falls back to an empty
// in-memory catalog otherwise.
func openCatalog(ctx context.Context, dsn string, logger zerolog.Logger) (catalog.Store, func(), error) {
	if dsn == "" {
		logger.Warn().Msg("DATABASE_URL not set, using empty in-memory catalog")
		return catalog.NewMemoryStore(nil, nil, nil), func() {}, nil
	}

	store, err := catalog.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	logger.Info().Msg("Connected to PostgreSQL catalog")
	return store, store.Close, nil
}

// openRedis returns nil when no Redis is configured. url may be a redis:// URL or host:port.
func openRedis(ctx context.Context, url string, logger zerolog.Logger) (*redis.Client, error) {
	if url == "" {
		logger.Warn().Msg("REDIS_URL not set, cache is process-local")
		return nil, nil
	}

	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	return client, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30m") or plain seconds ("1800").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
