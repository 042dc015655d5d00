package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/service"
	"github.com/sakif/doc-generator/internal/validate"
)

// RegisterHandler serves account creation and the pre-registration
// GitHub username check.
type RegisterHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewRegisterHandler creates a RegisterHandler.
func NewRegisterHandler(users *service.UserService, logger *slog.Logger) *RegisterHandler {
	return &RegisterHandler{users: users, logger: logger}
}

var registerSchema = validate.NewSchema(
	validate.Field{Name: "name", Kind: validate.String, Required: true, MinLen: 1, MaxLen: 100},
	validate.Field{Name: "email", Kind: validate.String, Required: true,
		Pattern: validate.EmailPattern, PatternMsg: "Invalid email format"},
	validate.Field{Name: "github_username", Kind: validate.String, Required: true,
		MinLen: 3, MaxLen: 50,
		Pattern:    validate.GitHubUsernamePattern,
		PatternMsg: "GitHub username may only contain letters, numbers, and hyphens"},
	validate.Field{Name: "password", Kind: validate.String, Required: true, MinLen: 8, MaxLen: 72},
	validate.Field{Name: "confirmPassword", Kind: validate.String},
)

var validateGitHubSchema = validate.NewSchema(
	validate.Field{Name: "githubUsername", Kind: validate.String, Required: true,
		MinLen: 3, MaxLen: 50,
		Pattern:    validate.GitHubUsernamePattern,
		PatternMsg: "GitHub username may only contain letters, numbers, and hyphens"},
)

// HandleRegister creates a new account.
//
// HTTP: POST /api/register
// BODY: {"name", "email", "github_username", "password", "confirmPassword"?}
//
// Responds 201 with the created user. The password hash is never
// serialized (json:"-" on the model).
func (h *RegisterHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	body, err := validate.JSONBody(r)
	if err != nil {
		Failure(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	req, verrs := registerSchema.Validate(body)
	if verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs.Fields))
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Name:            req.String("name"),
		Email:           req.String("email"),
		GitHubUsername:  req.String("github_username"),
		Password:        req.String("password"),
		ConfirmPassword: req.String("confirmPassword"),
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusCreated, "User registered successfully", map[string]any{
		"user": user,
	})
}

// HandleValidateGitHub checks a GitHub username before registration so
// the signup form can warn about typos early.
//
// HTTP: POST /api/register/validate-github
// BODY: {"githubUsername": "..."}
//
// When GitHub is unreachable the check degrades to format-only — a
// GitHub outage must never block signups (the response says which kind
// of check ran via the `verified` flag).
func (h *RegisterHandler) HandleValidateGitHub(w http.ResponseWriter, r *http.Request) {
	body, err := validate.JSONBody(r)
	if err != nil {
		Failure(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}
	req, verrs := validateGitHubSchema.Validate(body)
	if verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs.Fields))
		return
	}

	validation, err := h.users.ValidateGitHubUsername(r.Context(), req.String("githubUsername"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, validation.Message, validation)
}
