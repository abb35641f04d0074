package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/studiocoach/course-api/internal/application/newsletter"
)

type NewsletterHandler struct {
	service newsletter.Service
}

func NewNewsletterHandler(s newsletter.Service) *NewsletterHandler {
	return &NewsletterHandler{service: s}
}

type pdfDownloadRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type pdfDownloadResponse struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"downloadUrl"`
}

// PDFDownload handles POST /v1/newsletter/pdf-download.
func (h *NewsletterHandler) PDFDownload(w http.ResponseWriter, r *http.Request) {
	var req pdfDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	url, err := h.service.PDFDownload(r.Context(), req.Name, req.Email, clientIP(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pdfDownloadResponse{Success: true, DownloadURL: url})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
