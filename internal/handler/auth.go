package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/advista/advista-server-go/internal/errors"
	"github.com/advista/advista-server-go/internal/middleware"
	"github.com/advista/advista-server-go/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	requireAuth func(http.Handler) http.Handler
}

func NewAuthHandler(authService *service.AuthService, requireAuth func(http.Handler) http.Handler) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		requireAuth: requireAuth,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.SignUp)
	r.Post("/signin", h.SignIn)
	r.Post("/verify-email", h.VerifyEmail)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)
	r.Post("/resend-verification", h.ResendVerification)
	r.Get("/check-email-unique", h.CheckEmailUnique)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/me", h.Me)
	})

	return r
}

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authService.SignUp(r.Context(), strings.TrimSpace(req.Email), req.Password, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created. Check your email for a verification code.",
		"user":    user,
	})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authService.SignIn(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.authService.VerifyEmail(r.Context(), strings.TrimSpace(req.Email), req.Code); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

type emailRequest struct {
	Email string `json:"email"`
}

// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), strings.TrimSpace(req.Email)); err != nil {
		log.Error().Err(err).Msg("forgot password failed")
		writeError(w, err)
		return
	}

	// Same response whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for that email, a reset code has been sent.",
	})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), strings.TrimSpace(req.Email), req.Code, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

// POST /auth/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.authService.ResendVerification(r.Context(), strings.TrimSpace(req.Email)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Verification code sent"})
}

// GET /auth/check-email-unique?email=
func (h *AuthHandler) CheckEmailUnique(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, apperrors.MissingRequired("email"))
		return
	}

	unique, err := h.authService.IsEmailUnique(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"email":  email,
		"unique": unique,
	})
}

// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}
