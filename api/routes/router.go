package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-storefront/api/controllers"
	"github.com/angelmondragon/packfinderz-storefront/api/middleware"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// NewRouter builds the ops surface of the storefront agent. sessionStore may be nil when no
// durable store is configured.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	coord controllers.SectionSnapshotter,
	gatherer prometheus.Gatherer,
	sessionStore controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, "/healthz", "/metrics"),
	)

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/readyz", controllers.HealthReady(cfg, logg, sessionStore))
	r.Get("/sections", controllers.Sections(coord))
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
