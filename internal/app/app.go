// Package app wires the relay's dependency graph and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/impexo/storefront/internal/cart"
	"github.com/impexo/storefront/internal/checkout"
	"github.com/impexo/storefront/internal/config"
	"github.com/impexo/storefront/internal/relay"
	"github.com/impexo/storefront/pkg/database"
	"github.com/impexo/storefront/pkg/health"
	"github.com/impexo/storefront/pkg/httpclient"
)

// App wires together all dependencies and runs the relay.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	httpServer *http.Server
}

// NewApp creates the application, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthHandler := health.NewHandler()

	// The ledger slot. Redis when configured, process memory otherwise.
	var rdb *redis.Client
	var ledgerStore cart.Store
	if cfg.RedisAddr != "" {
		var err error
		rdb, err = database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		healthHandler.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		ledgerStore = cart.NewRedisStore(rdb, time.Duration(cfg.LedgerTTL)*time.Hour)
	} else {
		logger.Warn("REDIS_ADDR not set, basket will not survive restarts")
		ledgerStore = cart.NewMemoryStore()
	}

	ledger := cart.NewLedger(ledgerStore, logger)
	ledger.Rehydrate(ctx)

	// Catalog reads go through the retrying client behind a circuit
	// breaker; when the platform is down the diagnostic fallback keeps
	// the storefront rendering empty collections instead of errors.
	retrying := httpclient.New(httpclient.DefaultConfig())
	catalogClient := httpclient.NewCircuitBreakerClient(
		retrying, httpclient.DefaultCircuitBreakerConfig("catalog"), logger)

	// Cart writes and order creation are never retried server-side.
	plainClient := &http.Client{
		Timeout:   15 * time.Second,
		Transport: httpclient.NewTransport(20),
	}

	catalogHandler := relay.NewCatalogHandler(
		cfg.WPBaseURL, cfg.ConsumerKey, cfg.ConsumerSecret, catalogClient, logger)
	storeHandler := relay.NewStoreHandler(cfg.WPBaseURL, plainClient, logger)
	checkoutHandler := relay.NewCheckoutHandler(cfg.WPBaseURL, plainClient, logger)

	orderService := checkout.NewService(
		cfg.WPBaseURL+"/wp-json/custom-checkout/v1/create-order",
		checkout.PlainPoster{Client: plainClient}, logger)
	basketHandler := relay.NewBasketHandler(ledger, orderService, logger)

	router := relay.NewRouter(relay.RouterConfig{
		AllowedOrigins:      cfg.AllowedOrigins,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		CatalogCacheSeconds: cfg.CatalogCacheSeconds,
	}, catalogHandler, storeHandler, checkoutHandler, basketHandler, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		rdb:        rdb,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

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
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
