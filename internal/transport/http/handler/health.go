package handler

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	startedAt time.Time
	env       string
}

func NewHealthHandler(env string) *HealthHandler {
	return &HealthHandler{startedAt: time.Now(), env: env}
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"env":    h.env,
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}
