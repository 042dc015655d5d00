package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/auth"
	"github.com/sakif/doc-generator/internal/model"
	"github.com/sakif/doc-generator/internal/service"
	"github.com/sakif/doc-generator/internal/validate"
)

// UserHandler serves account management: read, update, search,
// deactivate, promote, password change.
//
// AUTHORIZATION SPLIT:
// The handler gates WHO may call an endpoint (the caller acts on their
// own record, or they are an admin — anything else is a 403 before the
// service runs). The service layer then enforces the rules themselves
// (non-admins can't touch role/is_active, admins can't deactivate
// themselves), so a routing mistake can't widen permissions.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

var updateUserSchema = validate.NewSchema(
	validate.Field{Name: "name", Kind: validate.String, MinLen: 1, MaxLen: 100},
	validate.Field{Name: "email", Kind: validate.String,
		Pattern: validate.EmailPattern, PatternMsg: "Invalid email format"},
	validate.Field{Name: "github_username", Kind: validate.String,
		MinLen: 3, MaxLen: 50,
		Pattern:    validate.GitHubUsernamePattern,
		PatternMsg: "GitHub username may only contain letters, numbers, and hyphens"},
	validate.Field{Name: "role", Kind: validate.String, Enum: []string{model.RoleUser, model.RoleAdmin}},
	validate.Field{Name: "is_active", Kind: validate.Bool},
)

var changePasswordSchema = validate.NewSchema(
	validate.Field{Name: "current_password", Kind: validate.String, Required: true, MinLen: 1},
	validate.Field{Name: "new_password", Kind: validate.String, Required: true, MinLen: 8, MaxLen: 72},
)

var searchUsersSchema = validate.NewSchema(
	validate.Field{Name: "q", Kind: validate.String, Required: true, MinLen: 1},
	validate.Field{Name: "page", Kind: validate.Int, Default: 1, Min: validate.IntPtr(1)},
	validate.Field{Name: "per_page", Kind: validate.Int, Default: 20,
		Min: validate.IntPtr(1), Max: validate.IntPtr(100)},
)

var listUsersSchema = validate.NewSchema(
	validate.Field{Name: "include_inactive", Kind: validate.Bool, Default: false},
)

// actor loads the authenticated caller's full record. Role checks need
// the record, not just the token's user ID.
func (h *UserHandler) actor(r *http.Request) (*model.User, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, apperror.New(apperror.CodeUnauthorized, "Valid authentication required")
	}
	return h.users.GetByID(r.Context(), userID)
}

// requireSelfOrAdmin rejects callers who are neither the target user
// nor an admin. Runs before any service invocation.
func requireSelfOrAdmin(actor *model.User, targetID string) error {
	if actor.ID == targetID || actor.IsAdmin() {
		return nil
	}
	return apperror.New(apperror.CodeAccessDenied, "You may only access your own account")
}

// HandleList returns all users (admin only).
//
// HTTP: GET /api/users?include_inactive=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	req, verrs := listUsersSchema.Validate(validate.QueryValues(r.URL.Query()))
	if verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs.Fields))
		return
	}

	users, err := h.users.List(r.Context(), actor, req.Bool("include_inactive"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "", map[string]any{"users": users})
}

// HandleGet returns one user (self or admin).
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	id := r.PathValue("id")
	if err := requireSelfOrAdmin(actor, id); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "", map[string]any{"user": user})
}

// HandleUpdate modifies a user's profile (self or admin; role and
// is_active admin only).
//
// HTTP: PUT /api/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	id := r.PathValue("id")
	if err := requireSelfOrAdmin(actor, id); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	body, err := validate.JSONBody(r)
	if err != nil {
		Failure(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	req, verrs := updateUserSchema.Validate(body)
	if verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs.Fields))
		return
	}

	// Only fields present in the request body are changed; Has
	// distinguishes "absent" from "zero value".
	var input service.UpdateInput
	if req.Has("name") {
		name := req.String("name")
		input.Name = &name
	}
	if req.Has("email") {
		email := req.String("email")
		input.Email = &email
	}
	if req.Has("github_username") {
		username := req.String("github_username")
		input.GitHubUsername = &username
	}
	if req.Has("role") {
		role := req.String("role")
		input.Role = &role
	}
	if req.Has("is_active") {
		active := req.Bool("is_active")
		input.IsActive = &active
	}

	user, err := h.users.Update(r.Context(), actor, id, input)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "User updated successfully", map[string]any{"user": user})
}

// HandleDelete soft-deletes a user (admin only, never self — enforced
// by the service).
//
// HTTP: DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	if err := h.users.Deactivate(r.Context(), actor, r.PathValue("id")); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "User deactivated successfully", nil)
}

// HandleChangePassword changes the caller's own password after
// verifying the current one. Admins cannot change another user's
// password through this endpoint — they don't know the current one.
//
// HTTP: PUT /api/users/{id}/password
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	id := r.PathValue("id")
	if actor.ID != id {
		WriteError(w, h.logger, apperror.New(apperror.CodeAccessDenied,
			"You may only change your own password"))
		return
	}

	body, err := validate.JSONBody(r)
	if err != nil {
		Failure(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	req, verrs := changePasswordSchema.Validate(body)
	if verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs.Fields))
		return
	}

	err = h.users.ChangePassword(r.Context(), id,
		req.String("current_password"), req.String("new_password"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "Password changed successfully", nil)
}

// HandlePromote grants the admin role (admin only — enforced by the
// service).
//
// HTTP: PUT /api/users/{id}/promote
func (h *UserHandler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	user, err := h.users.Promote(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "User promoted to admin", map[string]any{"user": user})
}

// HandleSearch finds users by substring match over name, email, and
// GitHub username.
//
// HTTP: GET /api/users/search?q=&page=&per_page=
func (h *UserHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if _, err := h.actor(r); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	req, verrs := searchUsersSchema.Validate(validate.QueryValues(r.URL.Query()))
	if verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs.Fields))
		return
	}

	result, err := h.users.Search(r.Context(), req.String("q"), req.Int("page"), req.Int("per_page"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "", result)
}
