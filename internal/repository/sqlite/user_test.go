package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/doc-generator/internal/apperror"
	"github.com/sakif/doc-generator/internal/model"
	"github.com/sakif/doc-generator/internal/repository"
)

// newTestDB returns a DB backed by an in-memory SQLite database.
// Each test gets its own — tests never share state.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser is a test helper that creates a user and fails the test
// if it errors.
func createTestUser(t *testing.T, db *DB, email, githubUsername string) *model.User {
	t.Helper()
	user := &model.User{
		Name:           "Test User",
		Email:          email,
		GitHubUsername: githubUsername,
		PasswordHash:   "$2a$04$fakehashfortesting",
		Role:           model.RoleUser,
		IsActive:       true,
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Name:           "Ada Lovelace",
		Email:          "ada@example.com",
		GitHubUsername: "ada",
		PasswordHash:   "$2a$04$fakehash",
		Role:           model.RoleUser,
		IsActive:       true,
	}

	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Verify the user was modified in-place (pointer receiver)
	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateEmailClassified(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com", "first-user")

	duplicate := &model.User{
		Name:           "Second",
		Email:          "dup@example.com", // same email
		GitHubUsername: "second-user",
		PasswordHash:   "$2a$04$fakehash",
		Role:           model.RoleUser,
		IsActive:       true,
	}
	err := db.Create(context.Background(), duplicate)
	if err == nil {
		t.Fatal("Create() should fail on duplicate email")
	}
	// The constraint backstop must produce the same classified error as
	// the service-level existence check.
	if code := apperror.CodeOf(err); code != apperror.CodeDuplicateEmail {
		t.Errorf("error code = %q, want %q", code, apperror.CodeDuplicateEmail)
	}
}

func TestUserCreate_DuplicateGitHubUsernameClassified(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "one@example.com", "shared-handle")

	duplicate := &model.User{
		Name:           "Second",
		Email:          "two@example.com",
		GitHubUsername: "shared-handle", // same handle
		PasswordHash:   "$2a$04$fakehash",
		Role:           model.RoleUser,
		IsActive:       true,
	}
	err := db.Create(context.Background(), duplicate)
	if err == nil {
		t.Fatal("Create() should fail on duplicate github_username")
	}
	if code := apperror.CodeOf(err); code != apperror.CodeDuplicateGitHubUsername {
		t.Errorf("error code = %q, want %q", code, apperror.CodeDuplicateGitHubUsername)
	}
}

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "get@example.com", "getuser")

	found, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Email != "get@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "get@example.com")
	}
	if found.LastLogin != nil {
		t.Error("LastLogin should be nil for a user who never logged in")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "nonexistent-id")
	if err == nil {
		t.Fatal("GetByID() should fail for a nonexistent ID")
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.CodeUserNotFound {
		t.Errorf("error = %v, want code USER_NOT_FOUND", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "lookup@example.com", "lookupuser")

	found, err := db.GetByEmail(context.Background(), "lookup@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.GitHubUsername != "lookupuser" {
		t.Errorf("GitHubUsername = %q, want %q", found.GitHubUsername, "lookupuser")
	}
}

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "update@example.com", "updateuser")

	user.Name = "Renamed"
	user.IsActive = false
	if err := db.Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	found, err := db.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() after update error = %v", err)
	}
	if found.Name != "Renamed" {
		t.Errorf("Name = %q, want %q", found.Name, "Renamed")
	}
	if found.IsActive {
		t.Error("IsActive should be false after deactivation")
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.User{ID: "no-such-id", Role: model.RoleUser}
	err := db.Update(context.Background(), ghost)
	if err == nil {
		t.Fatal("Update() should fail for a nonexistent user")
	}
}

func TestUserList_ExcludesInactiveByDefault(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "active@example.com", "activeuser")
	inactive := createTestUser(t, db, "inactive@example.com", "inactiveuser")

	inactive.IsActive = false
	if err := db.Update(context.Background(), inactive); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	users, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("List() returned %d users, want 1", len(users))
	}

	all, err := db.List(context.Background(), repository.ListOptions{IncludeInactive: true})
	if err != nil {
		t.Fatalf("List(IncludeInactive) error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List(IncludeInactive) returned %d users, want 2", len(all))
	}
}

func TestUserSearch(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "grace@example.com", "ghopper")
	createTestUser(t, db, "alan@example.com", "aturing")
	createTestUser(t, db, "donald@example.com", "dknuth")

	// Case-insensitive substring match on github_username
	users, total, err := db.Search(context.Background(), repository.SearchOptions{
		Query: "HOPPER", Page: 1, PerPage: 10,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 1 || len(users) != 1 {
		t.Fatalf("Search() = %d users (total %d), want 1", len(users), total)
	}
	if users[0].Email != "grace@example.com" {
		t.Errorf("found %q, want grace", users[0].Email)
	}
}

func TestUserSearch_Pagination(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "p1@example.com", "page-one")
	createTestUser(t, db, "p2@example.com", "page-two")
	createTestUser(t, db, "p3@example.com", "page-three")

	users, total, err := db.Search(context.Background(), repository.SearchOptions{
		Query: "page-", Page: 2, PerPage: 2,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(users) != 1 {
		t.Errorf("page 2 returned %d users, want 1", len(users))
	}
}
