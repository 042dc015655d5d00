package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/model"
	"github.com/sakif/doc-generator/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, github_username, password_hash, role, is_active, last_login, created_at, updated_at`

// Create inserts a new user row.
//
// The repository owns ID generation and timestamps — the caller passes a
// user with the business fields set and gets ID/CreatedAt/UpdatedAt filled
// in on the same struct (pointer receiver semantics).
//
// UNIQUE CONSTRAINTS AS THE RACE BACKSTOP:
// The service checks for duplicates before calling Create, but two
// concurrent registrations can both pass that check. The UNIQUE
// constraints then reject the second insert, and classifyConstraint turns
// the driver error back into the same duplicate error the check would
// have produced — callers can't tell which path rejected them.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, github_username, password_hash, role, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.GitHubUsername,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if dupErr := classifyConstraint(err); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns an apperror with code USER_NOT_FOUND if no row matches.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email. The lookup is exact: emails are
// lower-cased before persistence, so callers must normalize first.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByGitHubUsername retrieves a user by their GitHub username.
func (db *DB) GetByGitHubUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE github_username = ?`, username)
}

func (db *DB) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	var lastLogin sql.NullTime

	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.GitHubUsername,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&lastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.UserNotFound(fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}

	return &u, nil
}

// Update persists every mutable field of the user row.
// UpdatedAt is bumped here so callers never forget.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	var lastLogin any
	if user.LastLogin != nil {
		lastLogin = *user.LastLogin
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, email = ?, github_username = ?, password_hash = ?,
		     role = ?, is_active = ?, last_login = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Email,
		user.GitHubUsername,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		lastLogin,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if dupErr := classifyConstraint(err); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update of user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.UserNotFound(user.ID)
	}

	return nil
}

// List returns users ordered by creation time, newest first.
// Deactivated accounts are excluded unless opts.IncludeInactive is set.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	if !opts.IncludeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// Search finds active users whose name, email, or GitHub username contains
// the query, case-insensitively, with LIMIT/OFFSET pagination. The second
// return value is the total match count across all pages.
func (db *DB) Search(ctx context.Context, opts repository.SearchOptions) ([]model.User, int, error) {
	// LIKE in SQLite is already case-insensitive for ASCII; lower() makes
	// the intent explicit and keeps behaviour consistent.
	pattern := "%" + strings.ToLower(opts.Query) + "%"

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users
		 WHERE is_active = 1
		   AND (lower(name) LIKE ? OR lower(email) LIKE ? OR lower(github_username) LIKE ?)`,
		pattern, pattern, pattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting user search: %w", err)
	}

	offset := (opts.Page - 1) * opts.PerPage
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE is_active = 1
		   AND (lower(name) LIKE ? OR lower(email) LIKE ? OR lower(github_username) LIKE ?)
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		pattern, pattern, pattern, opts.PerPage, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: searching users: %w", err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func scanUsers(rows *sql.Rows) ([]model.User, error) {
	var users []model.User
	for rows.Next() {
		var u model.User
		var lastLogin sql.NullTime
		if err := rows.Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.GitHubUsername,
			&u.PasswordHash,
			&u.Role,
			&u.IsActive,
			&lastLogin,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		if lastLogin.Valid {
			u.LastLogin = &lastLogin.Time
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}
	return users, nil
}

// classifyConstraint turns a UNIQUE-constraint driver error into the
// matching duplicate AppError, or returns nil for unrelated errors.
//
// modernc.org/sqlite reports constraint violations as plain error strings
// that name the offending column ("UNIQUE constraint failed: users.email"),
// so string matching is the only handle we have.
func classifyConstraint(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	if strings.Contains(msg, "users.email") {
		return apperror.Wrap(apperror.CodeDuplicateEmail,
			"User with this email already exists", err)
	}
	if strings.Contains(msg, "users.github_username") {
		return apperror.Wrap(apperror.CodeDuplicateGitHubUsername,
			"User with this GitHub username already exists", err)
	}
	return nil
}
