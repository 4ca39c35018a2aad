// Package app wires together all dependencies and runs the search service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/romapi/search-service/internal/analytics"
	"github.com/romapi/search-service/internal/cache"
	"github.com/romapi/search-service/internal/category"
	"github.com/romapi/search-service/internal/config"
	esengine "github.com/romapi/search-service/internal/engine/elasticsearch"
	"github.com/romapi/search-service/internal/event"
	"github.com/romapi/search-service/internal/filterstate"
	"github.com/romapi/search-service/internal/geocode"
	handler "github.com/romapi/search-service/internal/handler/http"
	"github.com/romapi/search-service/internal/personalization"
	"github.com/romapi/search-service/internal/ratelimit"
	repo "github.com/romapi/search-service/internal/repository/postgres"
	"github.com/romapi/search-service/internal/service"
	"github.com/romapi/search-service/pkg/database"
	"github.com/romapi/search-service/pkg/health"
	"github.com/romapi/search-service/pkg/httpclient"
	pkgkafka "github.com/romapi/search-service/pkg/kafka"
)

const startupTimeout = 30 * time.Second

// App holds the running components of the search service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	httpServer *http.Server
	consumers  []*pkgkafka.Consumer
	analytics  *analytics.AsyncLogger
	producer   *pkgkafka.Producer
	pool       *pgxpool.Pool
	redis      *redis.Client
}

// NewApp creates an application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Cache store. The memory backend keeps everything in-process for
	// development and tests.
	var store cache.Store
	switch cfg.CacheBackend {
	case "redis":
		client, err := database.NewRedisClientFromURL(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = client
		store = cache.NewRedis(client)
		logger.Info("redis cache initialized", slog.String("url", cfg.RedisURL))
	default:
		store = cache.NewMemory()
		logger.Info("in-memory cache initialized")
	}

	gatewayCfg := cache.DefaultGatewayConfig()
	gatewayCfg.ResultTTL = cfg.ResultTTL
	gatewayCfg.SuggestionTTL = cfg.SuggestionTTL
	gw := cache.NewGateway(store, gatewayCfg, logger)

	// Postgres backs the relational fallback, saved searches and the
	// analytics reads personalization is built from.
	pool, err := database.NewPostgresPoolFromDSN(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	a.pool = pool

	resources := repo.NewResourceRepository(pool)
	categories := repo.NewCategoryRepository(pool)
	savedSearches := repo.NewSavedSearchRepository(pool)

	// Search engine.
	eng, err := esengine.New(esengine.Config{
		URL:       cfg.ElasticsearchURL,
		IndexName: cfg.ElasticsearchIndex,
		Username:  cfg.ElasticsearchUser,
		Password:  cfg.ElasticsearchPassword,
	}, logger)
	if err != nil {
		a.closePartial()
		return nil, fmt.Errorf("init elasticsearch engine: %w", err)
	}
	logger.Info("elasticsearch engine initialized",
		slog.String("url", cfg.ElasticsearchURL),
		slog.String("index", cfg.ElasticsearchIndex),
	)

	// Missing indexes are created at startup. A failure is not fatal: the
	// relational fallback serves until the cluster comes back.
	if err := eng.EnsureIndex(ctx); err != nil {
		logger.Warn("ensure index failed", slog.String("error", err.Error()))
	}

	// Analytics flow out through Kafka and come back in through the
	// aggregated history reads.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	a.producer = producer

	analyticsLogger, err := analytics.NewAsyncLogger(producer, cfg.AnalyticsTopic, cfg.AnalyticsPool, logger)
	if err != nil {
		a.closePartial()
		return nil, fmt.Errorf("init analytics logger: %w", err)
	}
	a.analytics = analyticsLogger

	personal := personalization.NewEngine(analytics.NewReader(pool), logger)

	// Geocoding goes through a circuit breaker so a slow Nominatim
	// cannot stall address searches.
	geoClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("nominatim"),
		logger,
	)
	geocoder := geocode.NewGeocoder(geoClient, cfg.NominatimURL, logger)

	filterStore := filterstate.NewStore(store, cfg.FilterTTL, logger)
	limiter := ratelimit.NewLimiter(store, int(cfg.SuggestRateLimit), cfg.SuggestRateWindow, logger)

	searchService := service.NewSearchService(eng, gw, resources, logger, service.Options{
		Limiter:        limiter,
		Analytics:      analyticsLogger,
		Personal:       personal,
		Categories:     category.NewResolver(categories, gw, logger),
		Geocoder:       geocoder,
		FilterState:    filterStore,
		PersonalWeight: cfg.PersonalizationWeight,
	})
	savedService := service.NewSavedSearchService(savedSearches, searchService, logger)

	// Resource and category change events invalidate the search caches.
	eventConsumer := event.NewConsumer(gw, logger)
	for _, topic := range event.Topics() {
		a.consumers = append(a.consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  "search-service",
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}, eventConsumer.Handle, logger))
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(a.consumers)),
	)

	// Health checks. Only the engine is critical: everything else
	// degrades instead of failing requests.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("elasticsearch", eng.Ping, true)
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("cache", store.Ping)
	healthHandler.Register("kafka", producer.Ping)

	router := handler.NewRouter(searchService, savedService, filterStore, healthHandler, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// The analytics pool drains before its producer closes.
	if a.analytics != nil {
		a.analytics.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closePartial releases resources acquired before a failed initialization.
func (a *App) closePartial() {
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
