package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bigtree/storefront-inquiry-go/internal/config"
	"github.com/bigtree/storefront-inquiry-go/internal/domain"
	"github.com/bigtree/storefront-inquiry-go/internal/handler"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/cache"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/memstore"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/observability"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/resilience"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/woocommerce"
	"github.com/bigtree/storefront-inquiry-go/internal/port"
	"github.com/bigtree/storefront-inquiry-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_woocommerce", cfg.UseWooCommerce),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("form_token_ttl", cfg.FormTokenTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "storefront-inquiry")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	// Session bindings outlive the form token so an authenticated visitor is
	// not logged out while their token is still valid.
	sessionBindings := cache.New[string](cfg.FormTokenTTL)
	bootstrapCache := cache.New[*domain.BootstrapUserData](cfg.CacheTTL)
	productCache := cache.New[*domain.Product](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("woocommerce")

	// --- Backend ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var (
		identity port.IdentityStore
		profiles port.ProfileStore
		carts    port.CartService
		orders   port.OrderService
		catalog  port.ProductCatalog
	)

	if cfg.UseWooCommerce && cfg.WooStoreURL != "" {
		logger.Info("using WooCommerce as commerce backend",
			zap.String("store_url", cfg.WooStoreURL),
		)
		wc := woocommerce.NewClient(
			httpClient,
			cfg.WooStoreURL,
			cfg.WooConsumerKey,
			cfg.WooConsumerSecret,
			cb,
			resilienceCfg,
			metrics,
			logger,
		)
		identity = wc
		profiles = wc
		carts = wc
		orders = wc
		catalog = wc
	} else {
		logger.Warn("WooCommerce not configured, using in-memory store")
		store := memstore.New()
		identity = store
		profiles = store
		carts = store
		orders = store
		catalog = store
	}

	// --- Services ---
	sessionSvc := service.NewSessionService(cfg.FormTokenSecret, cfg.FormTokenTTL, sessionBindings, logger)
	inquirySvc := service.NewInquiryService(identity, profiles, carts, orders, sessionSvc, bootstrapCache, cfg.OrdersRedirectURL, metrics, logger)
	bootstrapSvc := service.NewBootstrapService(identity, profiles, sessionSvc, bootstrapCache, cfg.PublicEndpointURL, metrics, logger)
	catalogSvc := service.NewCatalogService(catalog, productCache, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Inquiry:   inquirySvc,
		Bootstrap: bootstrapSvc,
		Catalog:   catalogSvc,
		Sessions:  sessionSvc,
	}, cfg, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
