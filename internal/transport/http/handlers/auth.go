package http_handlers

import (
	"net/http"

	"github.com/baechuer/nippou-service/internal/application/auth"
	"github.com/baechuer/nippou-service/internal/domain"
	"github.com/baechuer/nippou-service/internal/infrastructure/security"
	"github.com/baechuer/nippou-service/internal/logger"
	"github.com/baechuer/nippou-service/internal/transport/http/dto"
	"github.com/baechuer/nippou-service/internal/transport/http/middleware"
	"github.com/baechuer/nippou-service/internal/transport/http/response"
)

type AuthHandler struct {
	svc           *auth.Service
	secureCookies bool
}

func NewAuthHandler(svc *auth.Service, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		svc:           svc,
		secureCookies: secureCookies,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	msg, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name, req.Team)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Str("team", req.Team).Msg("user_registered")
	response.Created(w, dto.MessageResponse{Message: msg})
}

// Verify handles GET /api/auth/verify?token=
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	msg, err := h.svc.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Msg("email_verified")
	response.OK(w, dto.MessageResponse{Message: msg})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.LoginAttemptsTotal.WithLabelValues(loginStatus(err)).Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.LoginAttemptsTotal.WithLabelValues("success").Inc()

	logger.WithCtx(r.Context()).Info().Str("user_id", res.User.ID).Msg("user_logged_in")

	security.SetAuthToken(w, res.Token, h.svc.SessionTTL(), h.secureCookies)
	response.OK(w, dto.NewUserResponse(res.User))
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.CurrentUser(r.Context(), security.ReadAuthToken(r))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserResponse(u))
}

// Logout handles POST /api/auth/logout. It succeeds with or without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	msg := h.svc.Logout(r.Context())
	security.ClearAuthToken(w, h.secureCookies)

	logger.WithCtx(r.Context()).Info().Msg("user_logged_out")
	response.OK(w, dto.MessageResponse{Message: msg})
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	msg, err := h.svc.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Msg("password_reset_requested")
	response.OK(w, dto.MessageResponse{Message: msg})
}

// VerifyResetToken handles GET /api/auth/verify-reset-token?token=
func (h *AuthHandler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.VerifyResetToken(r.Context(), r.URL.Query().Get("token")); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.ValidResponse{Valid: true})
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	msg, err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().Msg("password_reset_completed")
	response.OK(w, dto.MessageResponse{Message: msg})
}

func loginStatus(err error) string {
	switch {
	case domain.Is(err, "invalid_credentials"):
		return "invalid_credentials"
	case domain.Is(err, "email_not_verified"):
		return "email_not_verified"
	default:
		return "error"
	}
}
