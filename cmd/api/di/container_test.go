package di

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-service/internal/config"
	"user-service/internal/usecase/user"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{HTTPPort: "0", GRPCPort: "0", ShutdownTimeout: time.Second},
		DB: config.DatabaseConfig{
			Driver:      config.DriverSQLite,
			SQLitePath:  ":memory:",
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{
			AccessTokenSecret:  "access",
			RefreshTokenSecret: "refresh",
			AccessTokenTTL:     time.Minute,
			RefreshTokenTTL:    time.Hour,
			BcryptCost:         4,
		},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Logger: config.LoggerConfig{Level: "error"},
	}
}

func TestNewContainer_SQLite(t *testing.T) {
	c, err := NewContainer(context.Background(), sqliteConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	assert.NotNil(t, c.DB)
	assert.Nil(t, c.Mongo)
	assert.Nil(t, c.RedisClient)

	created, err := c.UserUC.CreateUser(context.Background(), user.CreateUserRequest{
		Username: "alice",
		Password: "pw123",
		Roles:    []string{"Employee"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New user alice created", created.Message)
}

func TestNewContainer_WithRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := sqliteConfig()
	cfg.Redis = config.RedisConfig{
		Enabled:  true,
		Host:     mr.Host(),
		Port:     mr.Port(),
		PoolSize: 2,
		LockTTL:  time.Second,
	}

	c, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	require.NotNil(t, c.RedisClient)
	_, err = c.UserUC.CreateUser(context.Background(), user.CreateUserRequest{
		Username: "bob",
		Password: "pw123",
		Roles:    []string{"Employee"},
	})
	require.NoError(t, err)
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := sqliteConfig()
	cfg.Auth.AccessTokenSecret = ""

	_, err := NewContainer(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}
