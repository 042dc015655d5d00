package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/auth"
	"github.com/sakif/doc-generator/internal/service"
	"github.com/sakif/doc-generator/internal/validate"
)

// GitHubHandler proxies repository browsing for the authenticated user.
type GitHubHandler struct {
	github *service.GitHubService
	logger *slog.Logger
}

// NewGitHubHandler creates a GitHubHandler.
func NewGitHubHandler(github *service.GitHubService, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{github: github, logger: logger}
}

var repositoriesSchema = validate.NewSchema(
	validate.Field{Name: "search", Kind: validate.String, MaxLen: 256},
	validate.Field{Name: "page", Kind: validate.Int, Default: 1, Min: validate.IntPtr(1)},
	validate.Field{Name: "per_page", Kind: validate.Int, Default: 30,
		Min: validate.IntPtr(1), Max: validate.IntPtr(100)},
	validate.Field{Name: "sort", Kind: validate.String, Enum: []string{"name", "updated_at"}},
	validate.Field{Name: "order", Kind: validate.String, Default: "desc", Enum: []string{"asc", "desc"}},
)

var contentsSchema = validate.NewSchema(
	validate.Field{Name: "path", Kind: validate.String, Default: ""},
	validate.Field{Name: "branch", Kind: validate.String, Default: ""},
)

// HandleRepositories lists the caller's GitHub repositories.
//
// HTTP: GET /api/github/repositories?search=&page=&per_page=&sort=&order=
func (h *GitHubHandler) HandleRepositories(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		Failure(w, http.StatusUnauthorized, "Valid authentication required", nil)
		return
	}

	req, verrs := repositoriesSchema.Validate(validate.QueryValues(r.URL.Query()))
	if verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs.Fields))
		return
	}

	page, err := h.github.Repositories(r.Context(), userID, service.RepositoryQuery{
		Search:  req.String("search"),
		Page:    req.Int("page"),
		PerPage: req.Int("per_page"),
		Sort:    req.String("sort"),
		Order:   req.String("order"),
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "", page)
}

// HandleContents fetches a file or directory listing from one of the
// caller's repositories.
//
// HTTP: GET /api/github/repository/{repo_name}?path=&branch=
func (h *GitHubHandler) HandleContents(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		Failure(w, http.StatusUnauthorized, "Valid authentication required", nil)
		return
	}

	req, verrs := contentsSchema.Validate(validate.QueryValues(r.URL.Query()))
	if verrs != nil {
		WriteError(w, h.logger, apperror.ValidationFailed(verrs.Fields))
		return
	}

	contents, err := h.github.Contents(r.Context(), userID,
		r.PathValue("repo_name"), req.String("path"), req.String("branch"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "", contents)
}

// HandleBranches lists the branches of one of the caller's
// repositories.
//
// HTTP: GET /api/github/repository/{repo_name}/branches
func (h *GitHubHandler) HandleBranches(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		Failure(w, http.StatusUnauthorized, "Valid authentication required", nil)
		return
	}

	branches, err := h.github.Branches(r.Context(), userID, r.PathValue("repo_name"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	Success(w, http.StatusOK, "", map[string]any{"branches": branches})
}
