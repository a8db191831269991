package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-service/internal/adapter/gin/response"
	"user-service/pkg/logger"
	"user-service/pkg/security"
)

// Keys under which the access gate stores the caller in the gin context.
const (
	ContextUsernameKey = "username"
	ContextRolesKey    = "roles"
)

// TokenVerifier parses access tokens.
type TokenVerifier interface {
	ParseAccessToken(token string) (*security.UserInfo, error)
}

// JWTAuth requires a valid "Authorization: Bearer <token>" header. A missing
// header yields 401 and an unusable token yields 403. The caller's identity
// is stored in the gin context and in the request context.
func JWTAuth(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
			return
		}

		info, err := verifier.ParseAccessToken(tokenString)
		if err != nil {
			logger.WithContext(c.Request.Context(), log).Warn("invalid jwt token", zap.Error(err))
			response.Abort(c, http.StatusForbidden, response.CodeForbidden, "Forbidden")
			return
		}

		c.Set(ContextUsernameKey, info.Username)
		c.Set(ContextRolesKey, info.Roles)

		ctx := security.WithUserInfo(c.Request.Context(), info)
		ctx = logger.WithUserID(ctx, info.Username)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// bearerToken extracts the token of a Bearer authorization header.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
