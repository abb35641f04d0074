package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/studiocoach/course-api/internal/application/auth"
	"github.com/studiocoach/course-api/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service-layer sentinels onto wire status codes and
// user-facing messages. Anything unmapped is a 500 with no detail leaked.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
	case errors.Is(err, auth.ErrMalformedCode):
		writeError(w, http.StatusBadRequest, "Please enter a valid 6-digit code")
	case errors.Is(err, auth.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "Invalid verification code")
	case errors.Is(err, auth.ErrCodeExpired):
		writeError(w, http.StatusBadRequest, "Verification code has expired. Please request a new one.")
	case errors.Is(err, auth.ErrTooManyAttempts):
		writeError(w, http.StatusBadRequest, "Too many attempts. Please request a new code.")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Please wait before requesting another code")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "Access denied. Please contact support if you believe this is an error.")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrMisconfigured):
		writeError(w, http.StatusInternalServerError, "Server configuration error")
	default:
		slog.Error("unhandled service error", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
