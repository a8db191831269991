package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-service/internal/adapter/gin/response"
	"user-service/pkg/logger"
)

// MsgNotAllowedByCORS is returned when an origin is outside the allow-list.
const MsgNotAllowedByCORS = "Not allowed by CORS"

// CORS admits requests without an Origin header and requests whose origin is
// in allowedOrigins; everything else is rejected with 403. Preflight requests
// from admitted origins are answered with 200.
func CORS(allowedOrigins []string, log *zap.Logger) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed[origin]; !ok {
				logger.WithContext(c.Request.Context(), log).Warn("origin rejected", zap.String("origin", origin))
				response.Abort(c, http.StatusForbidden, response.CodeForbidden, MsgNotAllowedByCORS)
				return
			}

			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, PATCH, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
