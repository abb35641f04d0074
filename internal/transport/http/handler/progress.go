package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/studiocoach/course-api/internal/application/progress"
	"github.com/studiocoach/course-api/internal/domain"
	"github.com/studiocoach/course-api/internal/transport/http/middleware"
)

type ProgressHandler struct {
	service progress.Service
}

func NewProgressHandler(s progress.Service) *ProgressHandler {
	return &ProgressHandler{service: s}
}

// authorizeEmail enforces that a caller only touches their own progress: the
// email named in the request must match the session token's email. Writes the
// error response and returns false when the caller isn't allowed.
func authorizeEmail(w http.ResponseWriter, r *http.Request, email string) bool {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	if !strings.EqualFold(claims.Email, email) {
		writeError(w, http.StatusForbidden, "Access denied. Please contact support if you believe this is an error.")
		return false
	}
	return true
}

type recordCompletionResponse struct {
	Success         bool                 `json:"success"`
	Message         string               `json:"message"`
	Progress        *domain.UserProgress `json:"progress"`
	RevalidatedTags []string             `json:"revalidatedTags,omitempty"`
}

// RecordCompletion handles POST /v1/progress.
func (h *ProgressHandler) RecordCompletion(w http.ResponseWriter, r *http.Request) {
	var req progress.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// An empty userEmail falls through to the service's required-fields check.
	if req.UserEmail != "" && !authorizeEmail(w, r, req.UserEmail) {
		return
	}

	res, err := h.service.RecordCompletion(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	msg := "Progress updated successfully"
	if res.AlreadyCompleted {
		msg = "Chapter already completed"
	}
	writeJSON(w, http.StatusOK, recordCompletionResponse{
		Success:         true,
		Message:         msg,
		Progress:        res.Progress,
		RevalidatedTags: res.RevalidatedTags,
	})
}

// GetProgress handles GET /v1/progress?userEmail=...
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("userEmail")
	if email == "" {
		writeError(w, http.StatusBadRequest, "User email is required")
		return
	}
	if !authorizeEmail(w, r, email) {
		return
	}

	report, err := h.service.GetProgress(r.Context(), email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
