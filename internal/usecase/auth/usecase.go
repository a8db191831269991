package auth

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-service/internal/domain/user"
	pkgerrors "user-service/pkg/errors"
	"user-service/pkg/logger"
	"user-service/pkg/security"
)

const (
	MsgAllFieldsRequired = "All fields are required"
	MsgUnauthorized      = "Unauthorized"
	MsgForbidden         = "Forbidden"
)

// UserFinder looks users up by username. It returns (nil, nil) when absent.
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	GenerateAccessToken(info security.UserInfo) (string, error)
	GenerateRefreshToken(username string) (string, error)
	ParseRefreshToken(token string) (string, error)
}

// LoginRequest carries the credentials of a login attempt.
type LoginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// LoginResponse holds the tokens issued on login.
type LoginResponse struct {
	AccessToken  string
	RefreshToken string
}

// RefreshResponse holds a freshly issued access token.
type RefreshResponse struct {
	AccessToken string
}

// Usecase defines the interface for session operations.
type Usecase interface {
	Login(ctx context.Context, in LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error)
}

// AuthUsecase authenticates users against their stored password hash.
type AuthUsecase struct {
	users    UserFinder
	hasher   security.PasswordHasher
	tokens   TokenIssuer
	log      *zap.Logger
	validate *validator.Validate
}

var _ Usecase = (*AuthUsecase)(nil)

// New creates a new AuthUsecase.
func New(users UserFinder, hasher security.PasswordHasher, tokens TokenIssuer, log *zap.Logger) *AuthUsecase {
	return &AuthUsecase{users: users, hasher: hasher, tokens: tokens, log: log, validate: validator.New()}
}

// Login verifies the credentials of an active user and issues an access and
// a refresh token. Unknown users, inactive users and wrong passwords are
// indistinguishable to the caller.
func (uc *AuthUsecase) Login(ctx context.Context, in LoginRequest) (*LoginResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("login validation failed", zap.Error(err))
		return nil, pkgerrors.NewValidationError("", MsgAllFieldsRequired)
	}

	u, err := uc.users.GetByUsername(ctx, in.Username)
	if err != nil {
		log.Error("failed to find user for login", zap.String("username", in.Username), zap.Error(err))
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if u == nil || !u.Active {
		log.Warn("login rejected", zap.String("username", in.Username), zap.String("reason", "unknown or inactive user"))
		return nil, pkgerrors.NewUnauthorizedError(MsgUnauthorized)
	}

	if !uc.hasher.Verify(in.Password, u.PasswordHash) {
		log.Warn("login rejected", zap.String("username", in.Username), zap.String("reason", "password mismatch"))
		return nil, pkgerrors.NewUnauthorizedError(MsgUnauthorized)
	}

	access, err := uc.tokens.GenerateAccessToken(security.UserInfo{Username: u.Username, Roles: u.Roles})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to issue access token", err)
	}
	refresh, err := uc.tokens.GenerateRefreshToken(u.Username)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to issue refresh token", err)
	}

	log.Info("user logged in", zap.String("username", u.Username))
	return &LoginResponse{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token carrying the
// user's current roles.
func (uc *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if refreshToken == "" {
		return nil, pkgerrors.NewUnauthorizedError(MsgUnauthorized)
	}

	username, err := uc.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		log.Warn("refresh token rejected", zap.Error(err))
		return nil, pkgerrors.NewForbiddenError(MsgForbidden)
	}

	u, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		log.Error("failed to find user for refresh", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if u == nil || !u.Active {
		log.Warn("refresh rejected", zap.String("username", username), zap.String("reason", "unknown or inactive user"))
		return nil, pkgerrors.NewUnauthorizedError(MsgUnauthorized)
	}

	access, err := uc.tokens.GenerateAccessToken(security.UserInfo{Username: u.Username, Roles: u.Roles})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to issue access token", err)
	}

	return &RefreshResponse{AccessToken: access}, nil
}
