package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/posapp/pos-backend/internal/platform/httpx"
)

// newWorkerRegistry holds the job collectors plus the runtime collectors the API exposes.
func newWorkerRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// metricsRouter serves /metrics from reg and a /healthz liveness probe.
func metricsRouter(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return r
}

func newMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           metricsRouter(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
