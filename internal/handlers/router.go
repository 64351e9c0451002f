package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// NewRouter wires every API route behind the request id and metrics
// middleware. metricsHandler is mounted at /metrics when non-nil.
func NewRouter(
	dashboard *DashboardHandler,
	settings *SettingsHandler,
	live *LiveHandler,
	metricsHandler http.Handler,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID, Instrument(logger, metricsCollector))

	dashboard.RegisterRoutes(router)
	settings.RegisterRoutes(router)
	live.RegisterRoutes(router)
	RegisterDocsRoutes(router)

	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods("GET")
	}
	return router
}
