package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"weather-dashboard/internal/repository"
	"weather-dashboard/internal/services"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// TilePathPrefix is the route prefix tiles are proxied under
const TilePathPrefix = "/api/map/tiles"

// DashboardDefaults are the cities shown when a request names none
type DashboardDefaults struct {
	StripCity string
	GraphCity string
}

// DashboardHandler serves the read-only dashboard views
type DashboardHandler struct {
	responder
	weather  *services.WeatherService
	stats    *services.StatisticsService
	maps     *services.MapService
	calendar *services.CalendarService
	prefs    *services.PreferenceStore
	store    repository.KeyValueStore
	defaults DashboardDefaults
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	weather *services.WeatherService,
	stats *services.StatisticsService,
	maps *services.MapService,
	calendar *services.CalendarService,
	prefs *services.PreferenceStore,
	store repository.KeyValueStore,
	defaults DashboardDefaults,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	if defaults.StripCity == "" {
		defaults.StripCity = "Abuja"
	}
	if defaults.GraphCity == "" {
		defaults.GraphCity = "Abia"
	}
	return &DashboardHandler{
		responder: responder{logger: logger, metrics: metricsCollector},
		weather:   weather,
		stats:     stats,
		maps:      maps,
		calendar:  calendar,
		prefs:     prefs,
		store:     store,
		defaults:  defaults,
	}
}

// GetOverview handles GET /api/overview
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	unit, err := unitParam(r, h.prefs.Unit())
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	cities := h.weather.Overview(r.Context(), r.URL.Query().Get("q"), unit)
	h.sendJSON(w, map[string]interface{}{
		"unit":   unit,
		"cities": cities,
	}, http.StatusOK)
}

// GetCities handles GET /api/cities
func (h *DashboardHandler) GetCities(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]interface{}{
		"overview":   h.weather.Cities(),
		"statistics": h.stats.Cities(),
	}, http.StatusOK)
}

// GetForecastStrip handles GET /api/forecast/strip
func (h *DashboardHandler) GetForecastStrip(w http.ResponseWriter, r *http.Request) {
	unit, err := unitParam(r, h.prefs.Unit())
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	city := cityParam(r, h.defaults.StripCity)

	h.sendJSON(w, map[string]interface{}{
		"city":    city,
		"unit":    unit,
		"samples": h.weather.ForecastStrip(r.Context(), city, unit),
	}, http.StatusOK)
}

// GetForecastGraph handles GET /api/forecast/graph
func (h *DashboardHandler) GetForecastGraph(w http.ResponseWriter, r *http.Request) {
	unit, err := unitParam(r, h.prefs.Unit())
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	city := cityParam(r, h.defaults.GraphCity)

	h.sendJSON(w, map[string]interface{}{
		"city":   city,
		"unit":   unit,
		"points": h.weather.ForecastGraph(r.Context(), city, unit),
	}, http.StatusOK)
}

// GetStatistics handles GET /api/statistics
func (h *DashboardHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	unit, err := unitParam(r, h.prefs.Unit())
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	city := cityParam(r, h.stats.Cities()[0].Name)

	report, err := h.stats.Report(r.Context(), city, unit)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	h.sendJSON(w, report, http.StatusOK)
}

// GetMapLayers handles GET /api/map/layers
func (h *DashboardHandler) GetMapLayers(w http.ResponseWriter, r *http.Request) {
	unit, err := unitParam(r, h.prefs.Unit())
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	h.sendJSON(w, h.maps.Layers(unit), http.StatusOK)
}

// GetTile handles GET /api/map/tiles/{layer}/{z}/{x}/{y} by redirecting to
// the upstream tile server
func (h *DashboardHandler) GetTile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	coords := make([]int, 0, 3)
	for _, key := range []string{"z", "x", "y"} {
		n, err := strconv.Atoi(strings.TrimSuffix(vars[key], ".png"))
		if err != nil {
			h.sendError(w, r, "invalid tile coordinate "+key, http.StatusBadRequest)
			return
		}
		coords = append(coords, n)
	}

	target, err := h.maps.TileURL(vars["layer"], coords[0], coords[1], coords[2])
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// GetCalendar handles GET /api/calendar
func (h *DashboardHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	loc := h.calendar.Location()
	today := time.Now().In(loc)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			h.sendError(w, r, "invalid start format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		start = t
	}
	end := start.AddDate(0, 1, 0)
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.ParseInLocation("2006-01-02", e, loc)
		if err != nil {
			h.sendError(w, r, "invalid end format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		end = t
	}
	if !end.After(start) {
		h.sendError(w, r, "end must be after start", http.StatusBadRequest)
		return
	}

	h.sendJSON(w, map[string]interface{}{
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
		"events": h.calendar.Range(start, end),
	}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"storage":   "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.store.HealthCheck(ctx); err != nil {
		// Preferences still work in memory, so the service stays up
		h.logger.WarnErr(ctx, "[HEALTH_CHECK] Preference storage unavailable", logging.Fields{}, err)
		status["status"] = "degraded"
		status["storage"] = "unavailable"
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// RegisterRoutes registers the dashboard API routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/overview", h.GetOverview).Methods("GET")
	router.HandleFunc("/api/cities", h.GetCities).Methods("GET")
	router.HandleFunc("/api/forecast/strip", h.GetForecastStrip).Methods("GET")
	router.HandleFunc("/api/forecast/graph", h.GetForecastGraph).Methods("GET")
	router.HandleFunc("/api/statistics", h.GetStatistics).Methods("GET")
	router.HandleFunc("/api/map/layers", h.GetMapLayers).Methods("GET")
	router.HandleFunc(TilePathPrefix+"/{layer}/{z}/{x}/{y}", h.GetTile).Methods("GET")
	router.HandleFunc("/api/calendar", h.GetCalendar).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

func cityParam(r *http.Request, def string) string {
	if city := strings.TrimSpace(r.URL.Query().Get("city")); city != "" {
		return city
	}
	return def
}
