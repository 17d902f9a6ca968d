package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/posapp/pos-backend/internal/platform/httpx"
)

// Version is the API version reported by the banner. Overridden at build time.
var Version = "1.0.0"

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the payload of GET /api/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func healthHandler(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			httpx.JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Database: "unconfigured"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.Warn("health check failed", slog.Any("error", err))
			httpx.JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Database: "disconnected"})
			return
		}
		httpx.JSON(w, http.StatusOK, HealthResponse{Status: "healthy", Database: "connected"})
	}
}

// Banner is the payload of GET /.
type Banner struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func bannerHandler(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, Banner{
		Message: "POS API",
		Version: Version,
		Endpoints: map[string]string{
			"productLookup": "/api/products/{code}",
			"productList":   "/api/products",
			"purchase":      "/api/purchase",
			"transaction":   "/api/transactions/{id}",
			"dailySales":    "/api/stores/{storeCode}/daily-sales",
			"health":        "/api/health",
		},
	})
}
