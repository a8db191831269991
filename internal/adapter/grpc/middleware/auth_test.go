package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"user-service/pkg/logger"
	"user-service/pkg/security"
)

const protected = "/users.v1.UserService/"

// capturingHandler records the context it was called with
func capturingHandler(got *context.Context) grpc.UnaryHandler {
	return func(ctx context.Context, req any) (any, error) {
		*got = ctx
		return "success", nil
	}
}

func setupInterceptor(t *testing.T) (grpc.UnaryServerInterceptor, *security.TokenManager) {
	tokens, err := security.NewTokenManager("access", "refresh", time.Minute, time.Hour)
	require.NoError(t, err)
	return AuthInterceptor(tokens, zaptest.NewLogger(t), protected), tokens
}

func withAuth(value string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", value))
}

func TestAuthInterceptor_MissingToken(t *testing.T) {
	interceptor, _ := setupInterceptor(t)
	var got context.Context

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: protected + "ListUsers"}, capturingHandler(&got))

	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Nil(t, got)
}

func TestAuthInterceptor_InvalidToken(t *testing.T) {
	interceptor, tokens := setupInterceptor(t)
	refresh, err := tokens.GenerateRefreshToken("alice")
	require.NoError(t, err)
	var got context.Context

	_, err = interceptor(withAuth("Bearer "+refresh), nil, &grpc.UnaryServerInfo{FullMethod: protected + "ListUsers"}, capturingHandler(&got))

	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Nil(t, got)
}

func TestAuthInterceptor_ValidToken(t *testing.T) {
	interceptor, tokens := setupInterceptor(t)
	access, err := tokens.GenerateAccessToken(security.UserInfo{Username: "alice", Roles: []string{"Admin"}})
	require.NoError(t, err)
	var got context.Context

	resp, err := interceptor(withAuth("Bearer "+access), nil, &grpc.UnaryServerInfo{FullMethod: protected + "ListUsers"}, capturingHandler(&got))
	require.NoError(t, err)
	assert.Equal(t, "success", resp)

	info, ok := security.UserInfoFromContext(got)
	require.True(t, ok)
	assert.Equal(t, "alice", info.Username)
	assert.Equal(t, "alice", logger.GetUserID(got))
}

func TestAuthInterceptor_UnprotectedMethod(t *testing.T) {
	interceptor, _ := setupInterceptor(t)
	var got context.Context

	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, capturingHandler(&got))
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
	assert.NotNil(t, got)
}
