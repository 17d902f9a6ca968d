package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/posapp/pos-backend/internal/catalog"
	"github.com/posapp/pos-backend/internal/dailysales"
	"github.com/posapp/pos-backend/internal/observability"
	"github.com/posapp/pos-backend/internal/purchase"
	"github.com/posapp/pos-backend/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	DB                Pinger
	CatalogHandler    *catalog.Handler
	PurchaseHandler   *purchase.Handler
	DailySalesHandler *dailysales.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with POS API defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/", bannerHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler(params.DB, logger))
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
		if params.PurchaseHandler != nil {
			params.PurchaseHandler.MountRoutes(r)
		}
		if params.DailySalesHandler != nil {
			params.DailySalesHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
