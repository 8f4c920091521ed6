package server

import (
	"net/http"

	"github.com/Temirlan0k/ride-dispatch/internal/adapter/http/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routes struct {
	health   *handler.Health
	feedback *handler.Feedback
	ws       http.Handler
}

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, r *routes) {
	// System health
	mux.HandleFunc("GET /health", r.health.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Ride feedback
	mux.HandleFunc("POST /api/v1/rides/feedback", r.feedback.Submit)

	// Persistent connection endpoint
	mux.Handle("GET /ws", r.ws)
}
