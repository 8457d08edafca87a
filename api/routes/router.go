package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dariamatveeva/beautycare-backend/api/controllers"
	"github.com/dariamatveeva/beautycare-backend/api/middleware"
	"github.com/dariamatveeva/beautycare-backend/internal/cart"
	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
	"github.com/dariamatveeva/beautycare-backend/internal/flows"
	"github.com/dariamatveeva/beautycare-backend/internal/profiles"
	"github.com/dariamatveeva/beautycare-backend/internal/recommend"
	"github.com/dariamatveeva/beautycare-backend/internal/sources"
	"github.com/dariamatveeva/beautycare-backend/pkg/config"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

// Deps carries everything the router wires into handlers. Limiter and
// RedisPinger are nil-tolerant: without redis the API falls back to the
// in-process limiter and readiness skips the ping.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	Catalog         *catalog.Store
	Profiles        *profiles.Store
	Coordinator     *flows.Coordinator
	CartService     *cart.Service
	Selector        *recommend.Service
	Resolver        *sources.Resolver
	Limiter         middleware.Limiter
	RedisPinger     controllers.RedisPinger
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Catalog, deps.RedisPinger))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	mutationLimit := middleware.RateLimit(
		"callback",
		int64(cfg.RateLimit.CallbackLimit),
		cfg.RateLimit.CallbackWindow,
		deps.Limiter,
		logg,
	)

	r.Route("/api/v1/flows", func(r chi.Router) {
		r.With(mutationLimit).Post("/{flow}/start", controllers.FlowStart(deps.Coordinator, logg))
		r.With(mutationLimit).Post("/steps", controllers.FlowStep(deps.Coordinator, logg))
		r.Post("/complete", controllers.FlowComplete(deps.Coordinator, deps.Profiles, logg))
		r.Post("/abandon", controllers.FlowAbandon(deps.Coordinator, logg))
		r.Get("/session", controllers.FlowSession(deps.Coordinator, logg))
		r.Get("/stats", controllers.FlowStats(deps.Coordinator))
	})

	r.Get("/api/v1/recommendations", controllers.Recommendations(deps.Selector, deps.Profiles, deps.Catalog, logg))

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", controllers.CartGet(deps.CartService, logg))
		r.Delete("/", controllers.CartClear(deps.CartService, logg))
		r.With(mutationLimit).Post("/items", controllers.CartAddItem(deps.CartService, logg))
		r.Delete("/items", controllers.CartRemoveItem(deps.CartService, logg))
		r.Post("/items/quantity", controllers.CartSetQty(deps.CartService, logg))
		r.Post("/restore", controllers.CartRestore(deps.CartService, logg))
		r.Get("/resolve", controllers.CartResolve(deps.Resolver, deps.Catalog, logg))
	})

	r.Route("/api/v1/profile", func(r chi.Router) {
		r.Get("/", controllers.ProfileGet(deps.Profiles, logg))
		r.Delete("/", controllers.ProfileDelete(deps.Profiles, logg))
	})

	return r
}
