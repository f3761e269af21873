package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aegis-sec/aegis-analyzer/internal/monitoring"
	"github.com/aegis-sec/aegis-analyzer/internal/sources"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 10 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

// writeFailure maps service errors to status codes. Engine failures and
// anything unrecognized are a 500.
func writeFailure(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sources.ErrInvalidVideoID),
		errors.Is(err, sources.ErrSourceDisabled),
		errors.Is(err, monitoring.ErrMissingTarget):
		return http.StatusBadRequest
	case errors.Is(err, monitoring.ErrNoComments):
		return http.StatusNotFound
	case errors.Is(err, monitoring.ErrScrapeFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size-limited JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}
