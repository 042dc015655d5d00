package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/auth"
	"github.com/sakif/doc-generator/internal/service"
	"github.com/sakif/doc-generator/internal/validate"
)

// AuthHandler serves login, token refresh, and the current-user lookup.
type AuthHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

// Schemas are built once at package init and reused — they are
// immutable after creation.
var loginSchema = validate.NewSchema(
	validate.Field{Name: "email", Kind: validate.String, Required: true,
		Pattern: validate.EmailPattern, PatternMsg: "Invalid email format"},
	validate.Field{Name: "password", Kind: validate.String, Required: true, MinLen: 1},
)

var refreshSchema = validate.NewSchema(
	validate.Field{Name: "refresh_token", Kind: validate.String, Required: true, MinLen: 1},
)

// HandleLogin authenticates email/password credentials.
//
// HTTP: POST /api/auth/login
// BODY: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := validate.JSONBody(r)
	if err != nil {
		Failure(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	req, verrs := loginSchema.Validate(body)
	if verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs.Fields))
		return
	}

	result, err := h.users.Authenticate(r.Context(), req.String("email"), req.String("password"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "Login successful", map[string]any{
		"user":          result.User,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
	})
}

// HandleRefresh exchanges a refresh token for a new access token.
//
// HTTP: POST /api/auth/refresh
// BODY: {"refresh_token": "..."}
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	body, err := validate.JSONBody(r)
	if err != nil {
		Failure(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	req, verrs := refreshSchema.Validate(body)
	if verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs.Fields))
		return
	}

	access, err := h.users.Refresh(r.Context(), req.String("refresh_token"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "Token refreshed", map[string]any{
		"access_token": access,
	})
}

// HandleMe returns the authenticated user's own record.
//
// HTTP: GET /api/me (requires auth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		Failure(w, http.StatusUnauthorized, "Valid authentication required", nil)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "", map[string]any{"user": user})
}
