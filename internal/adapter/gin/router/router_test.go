package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"user-service/internal/adapter/db/postgres"
	"user-service/internal/adapter/gin/handler"
	authuc "user-service/internal/usecase/auth"
	useruc "user-service/internal/usecase/user"
	"user-service/pkg/security"
)

const allowedOrigin = "http://localhost:3000"

type testServer struct {
	router http.Handler
	db     *gorm.DB
	tokens *security.TokenManager
	token  string
}

func setupServer(t *testing.T) *testServer {
	log := zaptest.NewLogger(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&postgres.UserSchema{}, &postgres.NoteSchema{}))

	repo := postgres.NewUserRepoPG(db, log)
	notes := postgres.NewNoteRepoPG(db, log)
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	tokens, err := security.NewTokenManager("access", "refresh", time.Minute, time.Hour)
	require.NoError(t, err)

	userHandler := handler.NewUserHandler(useruc.New(repo, notes, hasher, nil, log), log)
	authHandler := handler.NewAuthHandler(authuc.New(repo, hasher, tokens, log), handler.CookieConfig{MaxAge: time.Hour}, log)

	token, err := tokens.GenerateAccessToken(security.UserInfo{Username: "admin", Roles: []string{"Admin"}})
	require.NoError(t, err)

	return &testServer{
		router: SetupRouter(userHandler, authHandler, tokens, Config{AllowedOrigins: []string{allowedOrigin}, ServiceName: "user-service"}, log),
		db:     db,
		tokens: tokens,
		token:  token,
	}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func listUsers(t *testing.T, s *testServer) []handler.UserResponse {
	w := s.do(http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var users []handler.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	return users
}

func TestUsersLifecycle(t *testing.T) {
	s := setupServer(t)

	// Empty store
	w := s.do(http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No users found", message(t, w))

	// Create
	w = s.do(http.MethodPost, "/users", map[string]any{"username": "alice", "password": "pw123", "roles": []string{"Employee"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "New user alice created", message(t, w))

	var stored postgres.UserSchema
	require.NoError(t, s.db.Where("username = ?", "alice").First(&stored).Error)
	assert.NotEqual(t, "pw123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw123")))

	// Duplicate
	w = s.do(http.MethodPost, "/users", map[string]any{"username": "alice", "password": "x", "roles": []string{"Admin"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Duplicate username", message(t, w))

	// List hides password
	users := listUsers(t, s)
	require.Len(t, users, 1)
	assert.Equal(t, handler.UserResponse{ID: stored.ID, Username: "alice", Roles: []string{"Employee"}, Active: true}, users[0])
	w = s.do(http.MethodGet, "/users", nil)
	assert.NotContains(t, w.Body.String(), "password")

	// Update keeps hash when password absent
	w = s.do(http.MethodPatch, "/users", map[string]any{"id": stored.ID, "username": "alice", "roles": []string{"Manager"}, "active": false})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Updated user alice", message(t, w))

	var updated postgres.UserSchema
	require.NoError(t, s.db.Where("id = ?", stored.ID).First(&updated).Error)
	assert.Equal(t, stored.PasswordHash, updated.PasswordHash)
	assert.Equal(t, []string{"Manager"}, updated.Roles)
	assert.False(t, updated.Active)

	// Referential block
	require.NoError(t, s.db.Create(&postgres.NoteSchema{ID: "n1", UserID: stored.ID, Title: "todo"}).Error)
	w = s.do(http.MethodDelete, "/users", map[string]any{"id": stored.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User has assigned notes", message(t, w))

	require.NoError(t, s.db.Delete(&postgres.NoteSchema{}, "id = ?", "n1").Error)
	w = s.do(http.MethodDelete, "/users", map[string]any{"id": stored.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reply string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "Username alice with ID "+stored.ID+" deleted", reply)

	// Gone
	w = s.do(http.MethodDelete, "/users", map[string]any{"id": stored.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User not found", message(t, w))
}

func TestUpdate_UsernameTakenByOther(t *testing.T) {
	s := setupServer(t)

	for _, name := range []string{"alice", "bob"} {
		w := s.do(http.MethodPost, "/users", map[string]any{"username": name, "password": "pw", "roles": []string{"Employee"}})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	var bob postgres.UserSchema
	require.NoError(t, s.db.Where("username = ?", "bob").First(&bob).Error)

	w := s.do(http.MethodPatch, "/users", map[string]any{"id": bob.ID, "username": "alice", "roles": []string{"Employee"}, "active": true})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Duplicate username", message(t, w))
}

func TestCreate_FreeFormUsernames(t *testing.T) {
	s := setupServer(t)

	for _, name := range []string{"Jane Doe", "o'neil"} {
		w := s.do(http.MethodPost, "/users", map[string]any{"username": name, "password": "pw", "roles": []string{"Employee"}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "New user "+name+" created", message(t, w))
	}
	assert.Len(t, listUsers(t, s), 2)
}

func TestPasswordOverBcryptLimit(t *testing.T) {
	s := setupServer(t)
	long := strings.Repeat("p", 80)

	w := s.do(http.MethodPost, "/users", map[string]any{"username": "bob", "password": long, "roles": []string{"Employee"}})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "Password must be at most 72 bytes", message(t, w))

	w = s.do(http.MethodPost, "/users", map[string]any{"username": "bob", "password": "pw", "roles": []string{"Employee"}})
	require.Equal(t, http.StatusCreated, w.Code)
	var bob postgres.UserSchema
	require.NoError(t, s.db.Where("username = ?", "bob").First(&bob).Error)

	w = s.do(http.MethodPatch, "/users", map[string]any{"id": bob.ID, "username": "bob", "roles": []string{"Employee"}, "active": true, "password": long})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "Password must be at most 72 bytes", message(t, w))
}

func TestUsers_RequireAccessToken(t *testing.T) {
	s := setupServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer tampered")
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOriginGate(t *testing.T) {
	s := setupServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", allowedOrigin)
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, allowedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoginThenAccess(t *testing.T) {
	s := setupServer(t)

	w := s.do(http.MethodPost, "/users", map[string]any{"username": "alice", "password": "pw123", "roles": []string{"Employee"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth", bytes.NewBufferString(`{"username":"alice","password":"pw123"}`))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login handler.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	info, err := s.tokens.ParseAccessToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Username)

	s.token = login.AccessToken
	assert.Len(t, listUsers(t, s), 1)
}

func TestDocsAndHealth(t *testing.T) {
	s := setupServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc, "paths")

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
