package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-service/internal/adapter/gin/response"
	"user-service/internal/usecase/auth"
	pkgerrors "user-service/pkg/errors"
	"user-service/pkg/logger"
)

// RefreshCookieName is the httpOnly cookie holding the refresh token.
const RefreshCookieName = "jwt"

// CookieConfig controls the attributes of the refresh cookie.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// AuthHandler handles login, refresh and logout.
type AuthHandler struct {
	uc     auth.Usecase
	cookie CookieConfig
	log    *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(uc auth.Usecase, cookie CookieConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, cookie: cookie, log: log}
}

// LoginRequest represents the HTTP request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login handles POST /auth
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid login body", zap.Error(err))
		response.Error(c, pkgerrors.NewValidationError("", auth.MsgAllFieldsRequired))
		return
	}

	resp, err := h.uc.Login(c.Request.Context(), auth.LoginRequest{Username: req.Username, Password: req.Password})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, resp.RefreshToken, int(h.cookie.MaxAge.Seconds()))
	c.JSON(http.StatusOK, TokenResponse{AccessToken: resp.AccessToken})
}

// Refresh handles GET /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(RefreshCookieName)
	if err != nil {
		response.Error(c, pkgerrors.ErrUnauthorized)
		return
	}

	resp, err := h.uc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: resp.AccessToken})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if _, err := c.Cookie(RefreshCookieName); err != nil {
		c.Status(http.StatusNoContent)
		return
	}

	h.setRefreshCookie(c, "", -1)
	c.JSON(http.StatusOK, response.MessageResponse{Message: "Cookie cleared"})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(RefreshCookieName, value, maxAge, "/", "", h.cookie.Secure, true)
}
