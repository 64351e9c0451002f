package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"weather-dashboard/internal/models"
	"weather-dashboard/internal/services"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// responder holds the JSON helpers shared by every handler
type responder struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// sendJSON sends a JSON response
func (h *responder) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *responder) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIError(strconv.Itoa(statusCode), routeName(r))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// sendServiceError maps typed service errors onto status codes
func (h *responder) sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *models.ValidationError
	var nfErr *services.NotFoundError

	switch {
	case errors.As(err, &vErr):
		h.sendError(w, r, vErr.Error(), http.StatusBadRequest)
	case errors.As(err, &nfErr):
		h.sendError(w, r, nfErr.Error(), http.StatusNotFound)
	default:
		h.logger.Error(r.Context(), "[API_ERROR] Unhandled service error", logging.Fields{
			"path": r.URL.Path,
		}, err)
		h.sendError(w, r, "internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON reads a JSON request body into dest
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return &models.ValidationError{Field: "body", Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}

// unitParam resolves the optional ?unit= query parameter, falling back to def
func unitParam(r *http.Request, def models.Unit) (models.Unit, error) {
	raw := r.URL.Query().Get("unit")
	if raw == "" {
		return def, nil
	}
	return models.ParseUnit(raw)
}
