package di

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-service/cmd/api/infrastructure"
	"user-service/internal/adapter/db/mongodb"
	"user-service/internal/adapter/db/postgres"
	ginhandler "user-service/internal/adapter/gin/handler"
	grpcadapter "user-service/internal/adapter/grpc"
	"user-service/internal/adapter/lock"
	"user-service/internal/config"
	"user-service/internal/usecase/auth"
	"user-service/internal/usecase/user"
	redisclient "user-service/pkg/redis"
	"user-service/pkg/security"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	Mongo       *mongo.Client
	RedisClient *redisclient.Client
	Tokens      *security.TokenManager
	UserUC      user.Usecase
	AuthUC      auth.Usecase
	UserHandler *ginhandler.UserHandler
	AuthHandler *ginhandler.AuthHandler
	UserService *grpcadapter.UserService
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	var (
		users user.Repository
		notes user.NoteRepository
	)
	switch cfg.DB.Driver {
	case config.DriverMongo:
		client, db, err := infrastructure.NewMongo(ctx, cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
		}
		c.Mongo = client
		users = mongodb.NewUserRepoMongo(db, l)
		notes = mongodb.NewNoteRepoMongo(db, l)
	default:
		db, err := infrastructure.NewDatabase(cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.DB = db
		users = postgres.NewUserRepoPG(db, l)
		notes = postgres.NewNoteRepoPG(db, l)
	}

	// The lock is optional; without Redis the unique index is the only guard
	var locker user.Locker
	if cfg.Redis.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb
		locker = lock.NewRedisLocker(rdb.Client, cfg.Redis.LockTTL, l)
	}

	tokens, err := security.NewTokenManager(
		cfg.Auth.AccessTokenSecret,
		cfg.Auth.RefreshTokenSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize token manager: %w", err)
	}
	c.Tokens = tokens

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	userUC := user.New(users, notes, hasher, locker, l)
	authUC := auth.New(users, hasher, tokens, l)

	c.UserUC = userUC
	c.AuthUC = authUC
	c.UserHandler = ginhandler.NewUserHandler(userUC, l)
	c.AuthHandler = ginhandler.NewAuthHandler(authUC, ginhandler.CookieConfig{
		Secure: cfg.Auth.CookieSecure,
		MaxAge: cfg.Auth.RefreshTokenTTL,
	}, l)
	c.UserService = grpcadapter.NewUserService(userUC, l)

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect MongoDB: %w", err))
		}
	}

	return errors.Join(errs...)
}
