package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/autostore-backend/api/controllers"
	"github.com/angelmondragon/autostore-backend/api/middleware"
	"github.com/angelmondragon/autostore-backend/internal/cart"
	"github.com/angelmondragon/autostore-backend/internal/checkout"
	"github.com/angelmondragon/autostore-backend/internal/financing"
	"github.com/angelmondragon/autostore-backend/internal/leads"
	"github.com/angelmondragon/autostore-backend/internal/preferences"
	"github.com/angelmondragon/autostore-backend/pkg/config"
	"github.com/angelmondragon/autostore-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/autostore-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	metricsHandler http.Handler,
	carCatalog controllers.CarCatalog,
	cartService cart.Service,
	checkoutService checkout.Service,
	preferencesService preferences.Service,
	leadsService leads.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	financingDefaults := financing.DefaultsFromConfig(cfg.Storefront)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.Storefront.GuestUserID, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/cars", func(r chi.Router) {
			r.Get("/", controllers.CarsList(carCatalog, logg))
			r.Get("/available", controllers.CarsAvailable(carCatalog, logg))
			r.Get("/statistics", controllers.CarStatistics(carCatalog, logg))
			r.Get("/brand/{brand}", controllers.CarsByBrand(carCatalog, logg))
			r.Get("/{carId}", controllers.CarDetail(carCatalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Get("/total", controllers.CartTotal(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.CheckoutSubmit(checkoutService, logg))
			r.Post("/summary", controllers.CheckoutSummary(checkoutService, logg))
			r.Post("/promo", controllers.CheckoutPromo(checkoutService, logg))
		})

		r.Get("/financing/quote", controllers.FinancingQuote(carCatalog, financingDefaults, logg))

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(preferencesService, logg))
			r.Post("/{carId}", controllers.FavoritesToggle(preferencesService, logg))
			r.Delete("/{carId}", controllers.FavoritesRemove(preferencesService, logg))
		})

		r.Route("/compare", func(r chi.Router) {
			r.Get("/", controllers.CompareList(preferencesService, logg))
			r.Delete("/", controllers.CompareClear(preferencesService, logg))
			r.Post("/{carId}", controllers.CompareToggle(preferencesService, logg))
			r.Delete("/{carId}", controllers.CompareRemove(preferencesService, logg))
		})

		if cfg.FeatureFlags.LeadsEnabled {
			r.Route("/leads", func(r chi.Router) {
				r.Get("/", controllers.LeadList(leadsService, logg))
				r.Post("/contact", controllers.LeadContact(leadsService, logg))
				r.Post("/test-drive", controllers.LeadTestDrive(leadsService, logg))
				r.Post("/financing", controllers.LeadFinancing(leadsService, logg))
			})
		}
	})

	return r
}
