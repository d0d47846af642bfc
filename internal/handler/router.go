package handler

import (
	"net/http"
	"time"

	"github.com/bigtree/storefront-inquiry-go/internal/config"
	"github.com/bigtree/storefront-inquiry-go/internal/infra/observability"
	"github.com/bigtree/storefront-inquiry-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the services the router exposes.
type Services struct {
	Inquiry   *service.InquiryService
	Bootstrap *service.BootstrapService
	Catalog   *service.CatalogService
	Sessions  *service.SessionService
}

// NewRouter creates the HTTP router with all routes and middleware.
// Every storefront-facing response uses the {success, data} envelope.
func NewRouter(svcs Services, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.StorefrontOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: cfg.StorefrontOrigin != "*",
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(svcs.Sessions))

		// =============================================
		// 1. Inquiry submission
		// POST /v1/inquiries
		// =============================================
		r.Post("/inquiries", submitInquiryHandler(svcs.Inquiry, logger))

		// =============================================
		// 2. Page bootstrap
		// GET /v1/bootstrap
		// =============================================
		r.Get("/bootstrap", bootstrapHandler(svcs.Bootstrap, logger))

		// =============================================
		// 3. Catalog
		// GET /v1/products/{productId}
		// GET /v1/products?sku=
		// =============================================
		r.Get("/products/{productId}", getProductHandler(svcs.Catalog, logger))
		r.Get("/products", getProductBySKUHandler(svcs.Catalog, logger))

		// =============================================
		// 4. Metrics snapshot
		// GET /v1/metrics/inquiries
		// =============================================
		r.Get("/metrics/inquiries", inquiryMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func inquiryMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetInquirySnapshot())
	}
}
