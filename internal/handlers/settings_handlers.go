package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// SettingsResponse is the settings page payload
type SettingsResponse struct {
	Preferences  models.Preferences `json:"preferences"`
	RecentCities []string           `json:"recent_cities"`
}

// SettingsHandler exposes the preference store
type SettingsHandler struct {
	responder
	prefs *services.PreferenceStore
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(prefs *services.PreferenceStore, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SettingsHandler {
	return &SettingsHandler{
		responder: responder{logger: logger, metrics: metricsCollector},
		prefs:     prefs,
	}
}

// GetSettings handles GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.sendSettings(w, h.prefs.Preferences())
}

// SaveSettings handles PUT /api/settings. Fields missing from the body keep
// their current value.
func (h *SettingsHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var body models.PreferencesUpdate
	if err := decodeJSON(w, r, &body); err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	prefs, err := h.prefs.Update(r.Context(), body)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	h.sendSettings(w, prefs)
}

// SetUnit handles PUT /api/settings/unit
func (h *SettingsHandler) SetUnit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Unit string `json:"unit"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	prefs, err := h.prefs.SetUnit(r.Context(), body.Unit)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	h.sendSettings(w, prefs)
}

// ToggleUnit handles POST /api/settings/unit/toggle
func (h *SettingsHandler) ToggleUnit(w http.ResponseWriter, r *http.Request) {
	h.sendSettings(w, h.prefs.ToggleUnit(r.Context()))
}

// SetCity handles PUT /api/settings/city
func (h *SettingsHandler) SetCity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		City string `json:"city"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	prefs, err := h.prefs.SetCity(r.Context(), body.City)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	h.sendSettings(w, prefs)
}

// SetTheme handles PUT /api/settings/theme
func (h *SettingsHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	prefs, err := h.prefs.SetTheme(r.Context(), body.Theme)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	h.sendSettings(w, prefs)
}

// SetNotifications handles PUT /api/settings/notifications
func (h *SettingsHandler) SetNotifications(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		h.sendServiceError(w, r, err)
		return
	}
	if body.Enabled == nil {
		h.sendError(w, r, "enabled is required", http.StatusBadRequest)
		return
	}

	h.sendSettings(w, h.prefs.SetNotifications(r.Context(), *body.Enabled))
}

// ResetSettings handles POST /api/settings/reset
func (h *SettingsHandler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	h.sendSettings(w, h.prefs.Reset(r.Context()))
}

// GetRecentCities handles GET /api/settings/recent-cities
func (h *SettingsHandler) GetRecentCities(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string][]string{
		"recent_cities": h.prefs.RecentCities(),
	}, http.StatusOK)
}

func (h *SettingsHandler) sendSettings(w http.ResponseWriter, prefs models.Preferences) {
	h.sendJSON(w, SettingsResponse{
		Preferences:  prefs,
		RecentCities: h.prefs.RecentCities(),
	}, http.StatusOK)
}

// RegisterRoutes registers the settings API routes
func (h *SettingsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/settings", h.GetSettings).Methods("GET")
	router.HandleFunc("/api/settings", h.SaveSettings).Methods("PUT")
	router.HandleFunc("/api/settings/unit", h.SetUnit).Methods("PUT")
	router.HandleFunc("/api/settings/unit/toggle", h.ToggleUnit).Methods("POST")
	router.HandleFunc("/api/settings/city", h.SetCity).Methods("PUT")
	router.HandleFunc("/api/settings/theme", h.SetTheme).Methods("PUT")
	router.HandleFunc("/api/settings/notifications", h.SetNotifications).Methods("PUT")
	router.HandleFunc("/api/settings/reset", h.ResetSettings).Methods("POST")
	router.HandleFunc("/api/settings/recent-cities", h.GetRecentCities).Methods("GET")
}
