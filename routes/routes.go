package routes

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
	_ "p9e.in/gaugewatch/docs"
	"p9e.in/gaugewatch/handlers"
	"p9e.in/gaugewatch/middleware"
)

// Options carries the optional pieces of the router.
type Options struct {
	// Live serves the websocket stream; nil disables /api/v1/live.
	Live http.Handler
	// Registry is exposed on /metrics when set.
	Registry *prometheus.Registry
	// Recorder receives per-request metrics.
	Recorder middleware.RequestRecorder
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(h *handlers.Handler, opts Options) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware(opts.Recorder))

	// =====================================================
	// Operational endpoints
	// =====================================================
	r.HandleFunc("/health", h.Health).Methods("GET")
	if opts.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})).Methods("GET")
	}
	r.HandleFunc("/swagger/doc.json", serveAPIDoc).Methods("GET")

	// =====================================================
	// API v1
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()

	registerSiteRoutes(api, h)
	registerReadingRoutes(api, h)
	registerDashboardRoutes(api, h, opts.Live)

	return r
}

func registerSiteRoutes(api *mux.Router, h *handlers.Handler) {
	api.HandleFunc("/sites", h.ListSites).Methods("GET")
	api.HandleFunc("/sites/nearest", h.NearestSite).Methods("GET")
	api.HandleFunc("/sites/geojson", h.SitesGeoJSON).Methods("GET")
	api.HandleFunc("/sites/{id}/readings", h.ListSiteReadings).Methods("GET")
	api.HandleFunc("/sites/{id}/trend", h.SiteTrend).Methods("GET")
}

func registerReadingRoutes(api *mux.Router, h *handlers.Handler) {
	api.HandleFunc("/readings", h.SubmitReading).Methods("POST")
	api.HandleFunc("/readings", h.ListReadings).Methods("GET")
	api.HandleFunc("/readings/{id}", h.GetReading).Methods("GET")
	api.HandleFunc("/readings/{id}/photo", h.GetReadingPhoto).Methods("GET")
	api.HandleFunc("/alerts", h.ListAlerts).Methods("GET")
}

func registerDashboardRoutes(api *mux.Router, h *handlers.Handler, live http.Handler) {
	api.HandleFunc("/dashboard", h.Dashboard).Methods("GET")
	api.HandleFunc("/dashboard/map", h.DashboardMap).Methods("GET")
	api.HandleFunc("/export/readings.xlsx", h.ExportXLSX).Methods("GET")
	api.HandleFunc("/export/readings.csv", h.ExportCSV).Methods("GET")
	if live != nil {
		api.Handle("/live", live).Methods("GET")
	}
}

func serveAPIDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		log.WithError(err).Error("failed to render API document")
		http.Error(w, "API document unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}
