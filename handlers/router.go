package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// websocketPath serves long-lived sessions, which are counted but not timed.
const websocketPath = "/ws"

// NewRouter registers every route of the dashboard API.
func NewRouter(h *DashboardHandler) *mux.Router {
	r := mux.NewRouter()
	r.Use(Instrument)

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard", h.HandleDashboard).Methods(http.MethodGet)
	api.HandleFunc("/latest", h.HandleLatest).Methods(http.MethodGet)
	api.HandleFunc("/series", h.HandleSeries).Methods(http.MethodGet)
	api.HandleFunc("/periods", h.HandlePeriods).Methods(http.MethodGet)
	r.HandleFunc(websocketPath, h.HandleWebSocket).Methods(http.MethodGet)

	r.Path("/metrics").Handler(promhttp.Handler())
	return r
}
