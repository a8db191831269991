package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"user-service/cmd/api/di"
	ginrouter "user-service/internal/adapter/gin/router"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(c *di.Container, ginAddr string, l *zap.Logger) *http.Server {
	// Setup Gin router with all middleware and routes
	router := ginrouter.SetupRouter(c.UserHandler, c.AuthHandler, c.Tokens, ginrouter.Config{
		AllowedOrigins: c.Config.CORS.AllowedOrigins,
		ServiceName:    c.Config.Logger.ServiceName,
	}, l)

	l.Info("Gin REST API configured",
		zap.String("address", ginAddr),
		zap.Strings("allowed_origins", c.Config.CORS.AllowedOrigins),
	)

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
