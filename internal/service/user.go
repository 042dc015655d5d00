// Package service holds the business logic layer.
//
// Services sit between the HTTP handlers and the repository/outbound
// clients:
//
//	Handler (HTTP) → Service (business rules) → UserRepository (DB)
//	               ↘ TokenService / PasswordService / GitHub client
//
// Handlers own request parsing and authorization gating (who may call
// what); services own the rules themselves (what happens, in what
// order, what counts as a conflict). Role-sensitive rules are enforced
// here too, so a handler bug cannot silently widen permissions.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/auth"
	"github.com/sakif/doc-generator/internal/model"
	"github.com/sakif/doc-generator/internal/repository"
)

// githubVerifier is the slice of the GitHub client the user service
// needs: just the existence check used at registration time.
type githubVerifier interface {
	UserExists(ctx context.Context, username string) (bool, error)
}

// UserService handles registration, authentication, and account
// management.
type UserService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	github    githubVerifier
	logger    *slog.Logger
}

// NewUserService creates a UserService with all required dependencies.
func NewUserService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	github githubVerifier,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		github:    github,
		logger:    logger,
	}
}

// RegisterInput carries the already-validated registration fields.
// Format validation (email regex, username pattern, lengths) happens in
// the handler's schema; this layer owns uniqueness and ordering rules.
type RegisterInput struct {
	Name            string
	Email           string
	GitHubUsername  string
	Password        string
	ConfirmPassword string // optional; checked only when non-empty
}

// Register creates a new account.
//
// ORDERING CONTRACT (clients depend on which error they see first):
//  1. confirmPassword mismatch — before any repository access
//  2. duplicate email
//  3. duplicate GitHub username
//
// The duplicate checks are check-then-insert and therefore racy; the
// UNIQUE constraints in SQLite are the backstop, and the repository
// classifies a constraint rejection into the same duplicate errors, so
// the loser of a race sees the identical response.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if input.ConfirmPassword != "" && input.Password != input.ConfirmPassword {
		return nil, apperror.ValidationFailed(map[string][]string{
			"confirmPassword": {"Passwords do not match"},
		})
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.New(apperror.CodeDuplicateEmail,
			"User with this email already exists")
	} else if apperror.CodeOf(err) != apperror.CodeUserNotFound {
		return nil, fmt.Errorf("service/user: checking email uniqueness: %w", err)
	}

	if _, err := s.users.GetByGitHubUsername(ctx, input.GitHubUsername); err == nil {
		return nil, apperror.New(apperror.CodeDuplicateGitHubUsername,
			"User with this GitHub username already exists")
	} else if apperror.CodeOf(err) != apperror.CodeUserNotFound {
		return nil, fmt.Errorf("service/user: checking github username uniqueness: %w", err)
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password: %w", err)
	}

	user := &model.User{
		Name:           strings.TrimSpace(input.Name),
		Email:          email,
		GitHubUsername: input.GitHubUsername,
		PasswordHash:   hash,
		Role:           model.RoleUser,
		IsActive:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("githubUsername", user.GitHubUsername),
	)

	return user, nil
}

// AuthResult bundles the user and the issued token pair.
type AuthResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// Authenticate verifies email/password credentials and issues tokens.
//
// ACCOUNT ENUMERATION:
// Unknown email, wrong password, and deactivated account all return the
// same INVALID_CREDENTIALS error with the same message. Distinct
// messages would let an attacker probe which emails have accounts.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := func() error {
		return apperror.New(apperror.CodeInvalidCredentials, "Invalid email or password")
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperror.CodeOf(err) == apperror.CodeUserNotFound {
			return nil, invalid()
		}
		return nil, fmt.Errorf("service/user: fetching user for login: %w", err)
	}

	if !user.IsActive {
		return nil, invalid()
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, invalid()
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		// A failed LastLogin write must not block the login itself.
		s.logger.Warn("failed to record last login",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}

	access, err := s.tokens.GenerateAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: generating access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: generating refresh token: %w", err)
	}

	s.logger.Info("user authenticated", slog.String("userID", user.ID))

	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a fresh access token.
// The account must still exist and be active — deactivation revokes the
// refresh token's usefulness immediately.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return "", apperror.Wrap(apperror.CodeUnauthorized, "Invalid refresh token", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", apperror.Wrap(apperror.CodeUnauthorized, "Invalid refresh token", err)
	}
	if !user.IsActive {
		return "", apperror.New(apperror.CodeUnauthorized, "Invalid refresh token")
	}

	access, err := s.tokens.GenerateAccess(user.ID)
	if err != nil {
		return "", fmt.Errorf("service/user: generating access token: %w", err)
	}
	return access, nil
}

// GetByID returns the user for the given internal ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateInput carries the optional fields of a profile update. Nil
// means "leave unchanged".
type UpdateInput struct {
	Name           *string
	Email          *string
	GitHubUsername *string
	Role           *string
	IsActive       *bool
}

// Update modifies a user's profile.
//
// Role and IsActive are admin-only fields: when a non-admin actor sends
// them the values are rejected, not silently dropped — a client that
// thinks it changed a role should find out it didn't.
func (s *UserService) Update(ctx context.Context, actor *model.User, id string, input UpdateInput) (*model.User, error) {
	if !actor.IsAdmin() && (input.Role != nil || input.IsActive != nil) {
		return nil, apperror.New(apperror.CodeAccessDenied,
			"Only admins can change role or active status")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.GitHubUsername != nil {
		user.GitHubUsername = *input.GitHubUsername
	}
	if input.Role != nil {
		if !model.ValidRole(*input.Role) {
			return nil, apperror.ValidationFailed(map[string][]string{
				"role": {fmt.Sprintf("Role must be %q or %q", model.RoleUser, model.RoleAdmin)},
			})
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user updated",
		slog.String("userID", user.ID),
		slog.String("actorID", actor.ID),
	)

	return user, nil
}

// ChangePassword sets a new password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.PasswordHash, currentPassword); err != nil {
		return apperror.New(apperror.CodeInvalidCredentials, "Current password is incorrect")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("service/user: hashing new password: %w", err)
	}

	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("password changed", slog.String("userID", id))
	return nil
}

// Deactivate soft-deletes an account (admin only). The row stays so
// audit history and uniqueness are preserved; the user just can't log
// in anymore.
//
// An admin cannot deactivate their own account — locking out the last
// admin would leave the system unmanageable.
func (s *UserService) Deactivate(ctx context.Context, actor *model.User, id string) error {
	if !actor.IsAdmin() {
		return apperror.New(apperror.CodeAccessDenied, "Only admins can deactivate users")
	}
	if actor.ID == id {
		return apperror.New(apperror.CodeAccessDenied, "You cannot deactivate your own account")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	user.IsActive = false
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("user deactivated",
		slog.String("userID", id),
		slog.String("actorID", actor.ID),
	)
	return nil
}

// Promote grants the admin role (admin only). Promoting an admin is a
// no-op rather than an error.
func (s *UserService) Promote(ctx context.Context, actor *model.User, id string) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.CodeAccessDenied, "Only admins can promote users")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Role != model.RoleAdmin {
		user.Role = model.RoleAdmin
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("user promoted to admin",
			slog.String("userID", id),
			slog.String("actorID", actor.ID),
		)
	}

	return user, nil
}

// List returns all users (admin only). Inactive accounts are included
// only when requested.
func (s *UserService) List(ctx context.Context, actor *model.User, includeInactive bool) ([]model.User, error) {
	if !actor.IsAdmin() {
		return nil, apperror.New(apperror.CodeAccessDenied, "Only admins can list users")
	}
	return s.users.List(ctx, repository.ListOptions{IncludeInactive: includeInactive})
}

// UserSearchResult is a page of user matches plus pagination metadata.
type UserSearchResult struct {
	Users      []model.User `json:"users"`
	Pagination Pagination   `json:"pagination"`
}

// Search finds active users by case-insensitive substring over name,
// email, and GitHub username.
func (s *UserService) Search(ctx context.Context, query string, page, perPage int) (*UserSearchResult, error) {
	users, total, err := s.users.Search(ctx, repository.SearchOptions{
		Query:   query,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, err
	}

	return &UserSearchResult{
		Users:      users,
		Pagination: NewPagination(page, perPage, total),
	}, nil
}

// GitHubValidation is the outcome of a registration-time GitHub
// username check.
type GitHubValidation struct {
	Valid bool `json:"valid"`
	// Verified is true when GitHub itself confirmed the account; false
	// when only the format could be checked (GitHub unreachable).
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// ValidateGitHubUsername checks that a GitHub account with the given
// username exists.
//
// DEGRADED MODE:
// When GitHub is unreachable (timeout, connection error, rate limit)
// registration must not be blocked, so the check degrades to
// format-only and says so in the response. A definitive 404 from
// GitHub, by contrast, is a hard "no such account".
func (s *UserService) ValidateGitHubUsername(ctx context.Context, username string) (*GitHubValidation, error) {
	exists, err := s.github.UserExists(ctx, username)
	if err != nil {
		s.logger.Warn("github username check degraded to format-only",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return &GitHubValidation{
			Valid:    true,
			Verified: false,
			Message:  "Could not reach GitHub; username format is valid",
		}, nil
	}

	if !exists {
		return &GitHubValidation{
			Valid:    false,
			Verified: true,
			Message:  fmt.Sprintf("GitHub user %q does not exist", username),
		}, nil
	}

	return &GitHubValidation{
		Valid:    true,
		Verified: true,
		Message:  "GitHub username is valid",
	}, nil
}
