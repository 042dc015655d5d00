package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/github"
	"github.com/sakif/doc-generator/internal/model"
)

// fakeBrowser records the GitHub identity each call was made with.
type fakeBrowser struct {
	lastUsername string
	lastOwner    string
	lastOpts     github.SearchOptions
	result       *github.SearchResult
}

func (f *fakeBrowser) SearchRepositories(_ context.Context, username string, opts github.SearchOptions) (*github.SearchResult, error) {
	f.lastUsername = username
	f.lastOpts = opts
	return f.result, nil
}

func (f *fakeBrowser) GetContents(_ context.Context, owner, repo, path, branch string) (*github.Contents, error) {
	f.lastOwner = owner
	return &github.Contents{Type: "dir"}, nil
}

func (f *fakeBrowser) GetBranches(_ context.Context, owner, repo string) ([]github.Branch, error) {
	f.lastOwner = owner
	return []github.Branch{{Name: "main"}}, nil
}

func newTestGitHubService(repo *fakeUserRepo, browser *fakeBrowser) *GitHubService {
	return NewGitHubService(repo, browser,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedUser(t *testing.T, repo *fakeUserRepo, githubUsername string) *model.User {
	t.Helper()
	user := &model.User{
		Name:           "Seed",
		Email:          githubUsername + "@example.com",
		GitHubUsername: githubUsername,
		PasswordHash:   "hash",
		Role:           model.RoleUser,
		IsActive:       true,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func TestRepositories_UsesStoredGitHubIdentity(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "octocat")
	browser := &fakeBrowser{result: &github.SearchResult{
		Repositories: []github.Repository{{Name: "alpha"}},
		TotalCount:   1,
	}}
	svc := newTestGitHubService(repo, browser)

	page, err := svc.Repositories(context.Background(), user.ID, RepositoryQuery{
		Page: 1, PerPage: 30,
	})
	if err != nil {
		t.Fatalf("Repositories() error = %v", err)
	}

	// The GitHub identity must come from the stored account, never from
	// the request.
	if browser.lastUsername != "octocat" {
		t.Errorf("searched as %q, want octocat", browser.lastUsername)
	}
	if page.GitHubUsername != "octocat" {
		t.Errorf("GitHubUsername = %q, want octocat", page.GitHubUsername)
	}
	// Unspecified sort falls back to most-recently-updated.
	if browser.lastOpts.Sort != "updated_at" {
		t.Errorf("Sort = %q, want updated_at default", browser.lastOpts.Sort)
	}
}

func TestRepositories_PaginationMetadata(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "octocat")
	browser := &fakeBrowser{result: &github.SearchResult{TotalCount: 45}}
	svc := newTestGitHubService(repo, browser)

	page, err := svc.Repositories(context.Background(), user.ID, RepositoryQuery{
		Page: 2, PerPage: 20,
	})
	if err != nil {
		t.Fatalf("Repositories() error = %v", err)
	}

	p := page.Pagination
	if p.TotalPages != 3 { // ceil(45/20)
		t.Errorf("TotalPages = %d, want 3", p.TotalPages)
	}
	if !p.HasNext || !p.HasPrev {
		t.Errorf("page 2 of 3: HasNext=%v HasPrev=%v, want both true", p.HasNext, p.HasPrev)
	}
}

func TestRepositories_UnknownUser(t *testing.T) {
	svc := newTestGitHubService(newFakeUserRepo(), &fakeBrowser{})

	_, err := svc.Repositories(context.Background(), "no-such-user", RepositoryQuery{Page: 1, PerPage: 30})
	if code := apperror.CodeOf(err); code != apperror.CodeUserNotFound {
		t.Errorf("error code = %q, want %q", code, apperror.CodeUserNotFound)
	}
}

func TestContentsAndBranches_ResolveOwnerFromAccount(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "octocat")
	browser := &fakeBrowser{}
	svc := newTestGitHubService(repo, browser)

	if _, err := svc.Contents(context.Background(), user.ID, "alpha", "src", "main"); err != nil {
		t.Fatalf("Contents() error = %v", err)
	}
	if browser.lastOwner != "octocat" {
		t.Errorf("contents owner = %q, want octocat", browser.lastOwner)
	}

	browser.lastOwner = ""
	if _, err := svc.Branches(context.Background(), user.ID, "alpha"); err != nil {
		t.Fatalf("Branches() error = %v", err)
	}
	if browser.lastOwner != "octocat" {
		t.Errorf("branches owner = %q, want octocat", browser.lastOwner)
	}
}

func TestNewPagination(t *testing.T) {
	cases := []struct {
		page, perPage, total       int
		totalPages                 int
		hasNext, hasPrev           bool
	}{
		{1, 10, 0, 0, false, false},
		{1, 10, 10, 1, false, false},
		{1, 10, 11, 2, true, false},
		{2, 10, 11, 2, false, true},
		{2, 10, 35, 4, true, true},
	}
	for _, c := range cases {
		p := NewPagination(c.page, c.perPage, c.total)
		if p.TotalPages != c.totalPages || p.HasNext != c.hasNext || p.HasPrev != c.hasPrev {
			t.Errorf("NewPagination(%d, %d, %d) = %+v, want pages=%d next=%v prev=%v",
				c.page, c.perPage, c.total, p, c.totalPages, c.hasNext, c.hasPrev)
		}
	}
}
