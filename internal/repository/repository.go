// Package repository declares the persistence interfaces consumed by the
// service layer. Concrete implementations live in subpackages (sqlite).
//
// Services depend on these interfaces — never on *sql.DB or a driver — so
// swapping the storage engine (or using an in-memory fake in tests) is a
// one-line change at the composition root.
package repository

import (
	"context"

	"github.com/sakif/doc-generator/internal/model"
)

// ListOptions controls user listings.
type ListOptions struct {
	// IncludeInactive also returns soft-deleted (deactivated) accounts.
	IncludeInactive bool
}

// SearchOptions controls paginated user search.
type SearchOptions struct {
	// Query is matched case-insensitively as a substring of the name,
	// email, and GitHub username columns.
	Query   string
	Page    int // 1-based
	PerPage int
}

// UserRepository is the persistence contract for user accounts.
//
// Lookups return an apperror with code USER_NOT_FOUND when no row matches;
// Create surfaces UNIQUE-constraint violations as DUPLICATE_EMAIL /
// DUPLICATE_GITHUB_USERNAME so a check-then-insert race still produces a
// classified error for the loser.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGitHubUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
	// Search returns the matching page plus the total match count, which
	// the caller needs to compute pagination metadata.
	Search(ctx context.Context, opts SearchOptions) ([]model.User, int, error)
}
