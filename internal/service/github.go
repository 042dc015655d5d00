package service

import (
	"context"
	"log/slog"

	"github.com/sakif/doc-generator/internal/github"
	"github.com/sakif/doc-generator/internal/model"
	"github.com/sakif/doc-generator/internal/repository"
)

// repoBrowser is the slice of the GitHub client this service uses.
type repoBrowser interface {
	SearchRepositories(ctx context.Context, username string, opts github.SearchOptions) (*github.SearchResult, error)
	GetContents(ctx context.Context, owner, repo, path, branch string) (*github.Contents, error)
	GetBranches(ctx context.Context, owner, repo string) ([]github.Branch, error)
}

// GitHubService proxies GitHub repository browsing for the
// authenticated user. The GitHub identity is never taken from the
// request — it is always the github_username stored on the caller's
// account, so one user cannot browse as another.
type GitHubService struct {
	users  repository.UserRepository
	client repoBrowser
	logger *slog.Logger
}

// NewGitHubService creates a GitHubService.
func NewGitHubService(users repository.UserRepository, client repoBrowser, logger *slog.Logger) *GitHubService {
	return &GitHubService{users: users, client: client, logger: logger}
}

// RepositoryQuery are the validated query parameters of a repository
// listing request.
type RepositoryQuery struct {
	Search  string
	Page    int
	PerPage int
	Sort    string
	Order   string
}

// RepositoryPage is a page of repositories plus pagination metadata and
// the GitHub identity it was resolved against.
type RepositoryPage struct {
	GitHubUsername string              `json:"github_username"`
	Repositories   []github.Repository `json:"repositories"`
	Pagination     Pagination          `json:"pagination"`
}

// Repositories lists the caller's GitHub repositories, optionally
// filtered by name.
func (s *GitHubService) Repositories(ctx context.Context, userID string, query RepositoryQuery) (*RepositoryPage, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if query.Sort == "" {
		query.Sort = "updated_at"
	}

	result, err := s.client.SearchRepositories(ctx, user.GitHubUsername, github.SearchOptions{
		Search:  query.Search,
		Page:    query.Page,
		PerPage: query.PerPage,
		Sort:    query.Sort,
		Order:   query.Order,
	})
	if err != nil {
		return nil, err
	}

	return &RepositoryPage{
		GitHubUsername: user.GitHubUsername,
		Repositories:   result.Repositories,
		Pagination:     NewPagination(query.Page, query.PerPage, result.TotalCount),
	}, nil
}

// Contents fetches a file or directory of one of the caller's
// repositories. An empty path means the repository root; an empty
// branch means the default branch.
func (s *GitHubService) Contents(ctx context.Context, userID, repoName, path, branch string) (*github.Contents, error) {
	user, err := s.resolveGitHubUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.client.GetContents(ctx, user.GitHubUsername, repoName, path, branch)
}

// Branches lists the branches of one of the caller's repositories.
func (s *GitHubService) Branches(ctx context.Context, userID, repoName string) ([]github.Branch, error) {
	user, err := s.resolveGitHubUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.client.GetBranches(ctx, user.GitHubUsername, repoName)
}

func (s *GitHubService) resolveGitHubUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}
