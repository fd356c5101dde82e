// Package httpserver contains the HTTP handlers and middleware of the profile API.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrUpstreamRateLimit):
		return http.StatusServiceUnavailable, "UPSTREAM_RATE_LIMIT"
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
	case errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway, "MODEL_RESPONSE_INVALID"
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, domain.ErrDataSource):
		return http.StatusServiceUnavailable, "DATA_SOURCE_UNAVAILABLE"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func writeError(w http.ResponseWriter, r *http.Request, err error, details any) {
	status, code := statusFor(err)
	lg := LoggerFrom(r)
	if status >= http.StatusInternalServerError {
		lg.Error("request failed", "code", code, "error", err)
	} else {
		lg.Warn("request rejected", "code", code, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code, Details: details})
}
