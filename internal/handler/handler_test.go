package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/doc-generator/internal/auth"
	"github.com/sakif/doc-generator/internal/model"
	"github.com/sakif/doc-generator/internal/repository/sqlite"
	"github.com/sakif/doc-generator/internal/service"
)

// stubVerifier replaces the live GitHub existence check in tests.
type stubVerifier struct {
	exists bool
	err    error
}

func (s *stubVerifier) UserExists(context.Context, string) (bool, error) {
	return s.exists, s.err
}

// testEnv wires real services over an in-memory SQLite database, so
// handler tests exercise the full stack below the HTTP layer.
type testEnv struct {
	users    *service.UserService
	tokens   *auth.TokenService
	auth     *AuthHandler
	register *RegisterHandler
	user     *UserHandler
	db       *sqlite.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-key", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := service.NewUserService(db, tokens,
		auth.NewPasswordServiceForTest(4), &stubVerifier{exists: true}, logger)

	return &testEnv{
		users:    users,
		tokens:   tokens,
		auth:     NewAuthHandler(users, logger),
		register: NewRegisterHandler(users, logger),
		user:     NewUserHandler(users, logger),
		db:       db,
	}
}

// register creates an account through the service layer and returns it.
func (e *testEnv) registerUser(t *testing.T, email, githubUsername string) *model.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), service.RegisterInput{
		Name:           "Test User",
		Email:          email,
		GitHubUsername: githubUsername,
		Password:       "a secure password",
	})
	if err != nil {
		t.Fatalf("registering test user: %v", err)
	}
	return user
}

// authedRequest builds a request carrying the user's identity the same
// way the middleware would after validating a bearer token.
func authedRequest(t *testing.T, env *testEnv, user *model.User, method, target string, body any) *http.Request {
	t.Helper()
	req := jsonRequest(t, method, target, body)

	token, err := env.tokens.GenerateAccess(user.ID)
	if err != nil {
		t.Fatalf("generating access token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	// Run the real middleware so the context key wiring is covered too.
	rr := httptest.NewRecorder()
	var out *http.Request
	auth.RequireAuth(env.tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out = r
	})).ServeHTTP(rr, req)
	if out == nil {
		t.Fatalf("middleware rejected test token: %s", rr.Body.String())
	}
	return out
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestRegisterHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.register.HandleRegister(rr, jsonRequest(t, http.MethodPost, "/api/register", map[string]any{
		"name":            "Ada Lovelace",
		"email":           "ada@example.com",
		"github_username": "ada",
		"password":        "analytical-engine",
		"confirmPassword": "analytical-engine",
	}))

	assert.Equal(t, http.StatusCreated, rr.Code)
	body := decodeEnvelope(t, rr)
	assert.Equal(t, true, body["success"])

	// The password hash must never appear anywhere in the response.
	assert.NotContains(t, rr.Body.String(), "password")
	assert.NotContains(t, rr.Body.String(), "$2a$")
}

func TestRegisterHandler_BatchesAllValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.register.HandleRegister(rr, jsonRequest(t, http.MethodPost, "/api/register", map[string]any{
		"email":           "not-an-email",
		"github_username": "x", // too short
		"password":        "short",
	}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeEnvelope(t, rr)
	assert.Equal(t, false, body["success"])

	// name missing, email malformed, username too short, password too
	// short — all reported at once, not just the first.
	errs, ok := body["errors"].(map[string]any)
	if assert.True(t, ok, "errors map missing: %v", body) {
		assert.Len(t, errs, 4)
	}
}

func TestLoginHandler(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "login@example.com", "loginuser")

	rr := httptest.NewRecorder()
	env.auth.HandleLogin(rr, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "login@example.com",
		"password": "a secure password",
	}))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeEnvelope(t, rr)
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "login2@example.com", "login2user")

	rr := httptest.NewRecorder()
	env.auth.HandleLogin(rr, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "login2@example.com",
		"password": "wrong",
	}))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	body := decodeEnvelope(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestRefreshHandler(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "refresh@example.com", "refreshuser")

	refresh, err := env.tokens.GenerateRefresh(user.ID)
	assert.NoError(t, err)

	rr := httptest.NewRecorder()
	env.auth.HandleRefresh(rr, jsonRequest(t, http.MethodPost, "/api/auth/refresh", map[string]any{
		"refresh_token": refresh,
	}))

	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeEnvelope(t, rr)["data"].(map[string]any)
	assert.NotEmpty(t, data["access_token"])
}

func TestMeHandler(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "me@example.com", "meuser")

	rr := httptest.NewRecorder()
	env.auth.HandleMe(rr, authedRequest(t, env, user, http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeEnvelope(t, rr)["data"].(map[string]any)
	me := data["user"].(map[string]any)
	assert.Equal(t, "me@example.com", me["email"])
}

func TestMeHandler_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rr := httptest.NewRecorder()
	auth.RequireAuth(env.tokens)(http.HandlerFunc(env.auth.HandleMe)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUserHandler_GetOtherUserDenied(t *testing.T) {
	env := newTestEnv(t)
	caller := env.registerUser(t, "caller@example.com", "calleruser")
	other := env.registerUser(t, "other@example.com", "otheruser")

	req := authedRequest(t, env, caller, http.MethodGet, "/api/users/"+other.ID, nil)
	req.SetPathValue("id", other.ID)

	rr := httptest.NewRecorder()
	env.user.HandleGet(rr, req)

	// Authorization fails before the service is consulted.
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUserHandler_AdminGetsAnyUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerUser(t, "admin@example.com", "adminuser")
	promoteDirectly(t, env, admin)
	target := env.registerUser(t, "target@example.com", "targetuser")

	req := authedRequest(t, env, admin, http.MethodGet, "/api/users/"+target.ID, nil)
	req.SetPathValue("id", target.ID)

	rr := httptest.NewRecorder()
	env.user.HandleGet(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUserHandler_UpdateSelf(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "edit@example.com", "edituser")

	req := authedRequest(t, env, user, http.MethodPut, "/api/users/"+user.ID, map[string]any{
		"name": "Edited Name",
	})
	req.SetPathValue("id", user.ID)

	rr := httptest.NewRecorder()
	env.user.HandleUpdate(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeEnvelope(t, rr)["data"].(map[string]any)
	updated := data["user"].(map[string]any)
	assert.Equal(t, "Edited Name", updated["name"])
}

func TestUserHandler_NonAdminCannotSetRole(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "sneaky@example.com", "sneakyuser")

	req := authedRequest(t, env, user, http.MethodPut, "/api/users/"+user.ID, map[string]any{
		"role": "admin",
	})
	req.SetPathValue("id", user.ID)

	rr := httptest.NewRecorder()
	env.user.HandleUpdate(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUserHandler_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "pw@example.com", "pwuser")

	req := authedRequest(t, env, user, http.MethodPut, "/api/users/"+user.ID+"/password", map[string]any{
		"current_password": "a secure password",
		"new_password":     "an even better password",
	})
	req.SetPathValue("id", user.ID)

	rr := httptest.NewRecorder()
	env.user.HandleChangePassword(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUserHandler_Promote(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerUser(t, "boss@example.com", "bossuser")
	promoteDirectly(t, env, admin)
	target := env.registerUser(t, "newbie@example.com", "newbieuser")

	req := authedRequest(t, env, admin, http.MethodPut, "/api/users/"+target.ID+"/promote", nil)
	req.SetPathValue("id", target.ID)

	rr := httptest.NewRecorder()
	env.user.HandlePromote(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeEnvelope(t, rr)["data"].(map[string]any)
	promoted := data["user"].(map[string]any)
	assert.Equal(t, "admin", promoted["role"])
}

func TestUserHandler_Search(t *testing.T) {
	env := newTestEnv(t)
	caller := env.registerUser(t, "searcher@example.com", "searcheruser")
	env.registerUser(t, "findme@example.com", "findmeuser")

	req := authedRequest(t, env, caller, http.MethodGet, "/api/users/search?q=findme", nil)

	rr := httptest.NewRecorder()
	env.user.HandleSearch(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeEnvelope(t, rr)["data"].(map[string]any)
	users := data["users"].([]any)
	assert.Len(t, users, 1)
	assert.NotNil(t, data["pagination"])
}

func TestValidateGitHubHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := httptest.NewRecorder()
	env.register.HandleValidateGitHub(rr, jsonRequest(t, http.MethodPost,
		"/api/register/validate-github", map[string]any{
			"githubUsername": "octocat",
		}))

	assert.Equal(t, http.StatusOK, rr.Code)
	data := decodeEnvelope(t, rr)["data"].(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, true, data["verified"])
}

// promoteDirectly flips the role in storage, bypassing the service's
// admin gate — tests need a first admin to exist somehow.
func promoteDirectly(t *testing.T, env *testEnv, user *model.User) {
	t.Helper()
	stored, err := env.db.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("loading user to promote: %v", err)
	}
	stored.Role = model.RoleAdmin
	if err := env.db.Update(context.Background(), stored); err != nil {
		t.Fatalf("promoting user directly: %v", err)
	}
	user.Role = model.RoleAdmin
}
