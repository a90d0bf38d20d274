package relay

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/impexo/storefront/pkg/health"
	"github.com/impexo/storefront/pkg/middleware"
)

// RouterConfig groups what the router needs beyond the handlers.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
	// CatalogCacheSeconds is the Cache-Control max-age on catalog reads.
	CatalogCacheSeconds int
}

// NewRouter assembles the relay's HTTP surface.
func NewRouter(
	cfg RouterConfig,
	catalog *CatalogHandler,
	store *StoreHandler,
	checkout *CheckoutHandler,
	basket *BasketHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("relay"))

	// The storefront calls every route cross-origin, so preflights must
	// cover the basket and session cart verbs too, not just POST.
	corsCfg := middleware.DefaultCORSConfig(cfg.AllowedOrigins)
	corsCfg.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	r.Use(middleware.CORS(corsCfg))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

		// Session cart surface, matched before the generic catalog route.
		r.Handle("/api/woocommerce/store/v1/*", store)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CatalogCacheSeconds))
			r.Get("/api/woocommerce/*", catalog.ServeHTTP)
		})

		r.Post("/api/checkout/create-order", checkout.ServeHTTP)

		r.Route("/api/basket", func(r chi.Router) {
			r.Get("/", basket.Get)
			r.Delete("/", basket.Clear)
			r.Post("/items", basket.AddItem)
			r.Put("/items", basket.UpdateItem)
			r.Delete("/items", basket.RemoveItem)
			r.Post("/offer", basket.SelectOffer)
			r.Post("/checkout", basket.Checkout)
		})
	})

	return r
}
