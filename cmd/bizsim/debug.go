package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/bizsim-client/internal/connection"
	"github.com/rickgao/bizsim-client/internal/metrics"
	"github.com/rickgao/bizsim-client/internal/model"
)

// newDebugHandler serves /health and the Prometheus metrics.
func newDebugHandler(mgr connection.Manager, g prometheus.Gatherer, metricsPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := mgr.Stats()
		events := mgr.Events()

		health := struct {
			Status     string `json:"status"`
			State      string `json:"state"`
			Published  string `json:"published_state,omitempty"`
			Session    string `json:"session"`
			Reconnects int64  `json:"reconnects"`
			FramesIn   int64  `json:"frames_in"`
			FramesOut  int64  `json:"frames_out"`
			QueueDepth int    `json:"queue_depth"`
			Pending    int    `json:"pending_events"`
			Suppressed int64  `json:"suppressed_events"`
			Routed     int64  `json:"events_routed"`
			Unknown    int64  `json:"unknown_frames"`
		}{
			Status:     "healthy",
			State:      stats.State.String(),
			Session:    stats.SessionID.String(),
			Reconnects: stats.Reconnects,
			FramesIn:   stats.FramesIn,
			FramesOut:  stats.FramesOut,
			QueueDepth: stats.QueueDepth,
			Pending:    events.Pending(),
			Suppressed: events.Stats().Suppressed,
			Routed:     stats.Router.EventsRouted,
			Unknown:    stats.Router.Unknown,
		}
		// Connected while the login is pending is not published.
		if last, ok := events.LastState(); ok {
			health.Published = last.String()
		}

		switch {
		case stats.State == model.StateInvalidLogin:
			health.Status = "unhealthy"
		case stats.State != model.StateConnected || !stats.Authenticated:
			health.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	r.Method(http.MethodGet, metricsPath, metrics.Handler(g))

	return r
}
