package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-service/internal/usecase/auth"
	pkgerrors "user-service/pkg/errors"
)

type MockAuthUsecase struct {
	mock.Mock
}

func (m *MockAuthUsecase) Login(ctx context.Context, in auth.LoginRequest) (*auth.LoginResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.LoginResponse), args.Error(1)
}

func (m *MockAuthUsecase) Refresh(ctx context.Context, refreshToken string) (*auth.RefreshResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.RefreshResponse), args.Error(1)
}

func setupAuthTest(t *testing.T) (*gin.Engine, *MockAuthUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockAuthUsecase)
	h := NewAuthHandler(mockUsecase, CookieConfig{Secure: true, MaxAge: 24 * time.Hour}, zaptest.NewLogger(t))

	r := gin.New()
	r.POST("/auth", h.Login)
	r.GET("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
	return r, mockUsecase
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)
		mockUsecase.On("Login", mock.Anything, auth.LoginRequest{Username: "alice", Password: "pw"}).
			Return(&auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil)

		w := doJSON(r, http.MethodPost, "/auth", `{"username":"alice","password":"pw"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "access", resp.AccessToken)

		cookie := findCookie(w, RefreshCookieName)
		require.NotNil(t, cookie)
		assert.Equal(t, "refresh", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, 86400, cookie.MaxAge)
	})

	t.Run("Wrong Credentials", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)
		mockUsecase.On("Login", mock.Anything, mock.Anything).Return(nil, pkgerrors.NewUnauthorizedError("Unauthorized"))

		w := doJSON(r, http.MethodPost, "/auth", `{"username":"alice","password":"nope"}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, findCookie(w, RefreshCookieName))
	})

	t.Run("Malformed Body", func(t *testing.T) {
		r, _ := setupAuthTest(t)

		w := doJSON(r, http.MethodPost, "/auth", `{`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, auth.MsgAllFieldsRequired, decodeError(t, w).Message)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("No Cookie", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)

		w := doJSON(r, http.MethodGet, "/auth/refresh", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockUsecase.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	})

	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)
		mockUsecase.On("Refresh", mock.Anything, "refresh").Return(&auth.RefreshResponse{AccessToken: "new-access"}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "refresh"})
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "new-access", resp.AccessToken)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		r, mockUsecase := setupAuthTest(t)
		mockUsecase.On("Refresh", mock.Anything, "stale").Return(nil, pkgerrors.NewForbiddenError("Forbidden"))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "stale"})
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestLogout(t *testing.T) {
	t.Run("No Cookie", func(t *testing.T) {
		r, _ := setupAuthTest(t)

		w := doJSON(r, http.MethodPost, "/auth/logout", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Clears Cookie", func(t *testing.T) {
		r, _ := setupAuthTest(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "refresh"})
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Cookie cleared")

		cookie := findCookie(w, RefreshCookieName)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.True(t, cookie.MaxAge < 0)
	})
}
