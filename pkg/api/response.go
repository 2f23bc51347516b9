package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

// Response is the JSON error envelope.
type Response struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONResponse encodes data with the given status.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode JSON response", slog.Any("error", err))
	}
}

// ErrorResponse writes {"error": message}.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSONResponse(w, r, status, Response{Error: message})
}

// StatusForError maps domain sentinels to HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidInput), errors.Is(err, types.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, types.ErrNoData):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DomainErrorResponse writes err with the status StatusForError picks.
// Internal errors are reported without their details.
func DomainErrorResponse(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := StatusForError(err)
	resp := Response{Error: message}
	if status != http.StatusInternalServerError {
		resp.Details = err.Error()
	}
	WriteJSONResponse(w, r, status, resp)
}

// ParseFloatParam reads a float query parameter. ok is false when the
// parameter is absent; err is set when it is present but malformed or not
// finite.
func ParseFloatParam(r *http.Request, name string) (value float64, ok bool, err error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	value, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, true, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, true, fmt.Errorf("%s must be a finite number, got %q", name, raw)
	}
	return value, true, nil
}
