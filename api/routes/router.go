package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/aether-storefront/api/controllers"
	"github.com/angelmondragon/aether-storefront/api/middleware"
	"github.com/angelmondragon/aether-storefront/internal/storefront"
	"github.com/angelmondragon/aether-storefront/pkg/config"
	"github.com/angelmondragon/aether-storefront/pkg/logger"
	"github.com/angelmondragon/aether-storefront/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	svc *storefront.Services,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	pingers map[string]controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svc.Catalog, pingers))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Sync reconciles active profiles under their locks, so it must not hold one itself.
		r.Post("/catalog/sync", controllers.CatalogSync(svc.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Profile(svc.Locks, svc.Registry, svc.Reconciler, logg))

			r.Get("/catalog/products", controllers.CatalogList(svc.Catalog, logg))
			r.Get("/catalog/products/{id}", controllers.CatalogProduct(svc.Catalog, svc.History, logg))
			r.Get("/catalog/facets", controllers.CatalogFacets(svc.Catalog, logg))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", controllers.AuthSignup(svc.Auth, logg))
				r.Post("/login", controllers.AuthLogin(svc.Auth, logg))
				r.Post("/logout", controllers.AuthLogout(svc.Auth, logg))
			})

			r.Route("/account", func(r chi.Router) {
				r.Get("/", controllers.AccountGet(svc.Auth, logg))
				r.Patch("/", controllers.AccountUpdate(svc.Auth, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(svc.Cart, logg))
				r.Delete("/", controllers.CartClear(svc.Cart, logg))
				r.Post("/items", controllers.CartAddItem(svc.Cart, logg))
				r.Patch("/items/{id}", controllers.CartSetQuantity(svc.Cart, logg))
				r.Delete("/items/{id}", controllers.CartRemoveItem(svc.Cart, logg))
				r.Post("/items/{id}/increment", controllers.CartIncrement(svc.Cart, logg))
				r.Post("/items/{id}/decrement", controllers.CartDecrement(svc.Cart, logg))
			})

			r.Route("/saved", func(r chi.Router) {
				r.Get("/", controllers.SavedGet(svc.Saved, logg))
				r.Post("/{kind}/{id}/toggle", controllers.SavedToggle(svc.Saved, logg))
				r.Delete("/{kind}", controllers.SavedClear(svc.Saved, logg))
				r.Delete("/{kind}/{id}", controllers.SavedRemove(svc.Saved, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/quote", controllers.CheckoutQuote(svc.Checkout, logg))
				r.Get("/shipping-methods", controllers.CheckoutShippingMethods())
				r.With(middleware.Idempotency(svc.Store, middleware.CriticalIdempotencyTTL, logg)).
					Post("/", controllers.CheckoutPlaceOrder(svc.Checkout, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(svc.Orders, logg))
				r.Delete("/", controllers.OrdersClear(svc.Orders, logg))
				r.Get("/{id}", controllers.OrdersGet(svc.Orders, logg))
			})

			r.Route("/loyalty", func(r chi.Router) {
				r.Get("/", controllers.LoyaltyGet(svc.Loyalty, logg))
				r.Get("/rewards", controllers.LoyaltyRewards(svc.Loyalty, logg))
				r.With(middleware.Idempotency(svc.Store, middleware.DefaultIdempotencyTTL, logg)).
					Post("/rewards/{id}/redeem", controllers.LoyaltyRedeem(svc.Loyalty, logg))
			})

			r.Get("/coupons", controllers.CouponsGet(svc.Coupons, logg))

			r.Route("/history", func(r chi.Router) {
				r.Get("/", controllers.HistoryGet(svc.History, svc.Catalog, logg))
				r.Delete("/", controllers.HistoryClear(svc.History, logg))
			})
		})
	})

	return r
}
