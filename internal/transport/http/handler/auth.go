package handler

import (
	"encoding/json"
	"net/http"

	"github.com/studiocoach/course-api/internal/application/auth"
	"github.com/studiocoach/course-api/internal/domain"
)

type AuthHandler struct {
	service auth.Service
}

func NewAuthHandler(s auth.Service) *AuthHandler {
	return &AuthHandler{service: s}
}

type sendOtpRequest struct {
	Email string `json:"email"`
}

type sendOtpResponse struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

// SendOtp handles POST /v1/auth/send-otp.
func (h *AuthHandler) SendOtp(w http.ResponseWriter, r *http.Request) {
	var req sendOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.service.RequestCode(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sendOtpResponse{Message: res.Message, Email: res.Email})
}

type verifyOtpRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type verifyOtpResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	User    domain.SafeUser `json:"user"`
	Token   string          `json:"token,omitempty"`
}

// VerifyOtp handles POST /v1/auth/verify-otp.
func (h *AuthHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req verifyOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.service.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyOtpResponse{
		Success: true,
		Message: "Verification successful",
		User:    res.User,
		Token:   res.Token,
	})
}
