package middleware

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	pkgerrors "user-service/pkg/errors"
	"user-service/pkg/logger"
	"user-service/pkg/security"
)

// TokenVerifier parses access tokens.
type TokenVerifier interface {
	ParseAccessToken(token string) (*security.UserInfo, error)
}

// AuthInterceptor requires "authorization: Bearer <token>" metadata on every
// method whose full name starts with one of the protected prefixes. A missing
// token yields Unauthenticated and an unusable one PermissionDenied.
func AuthInterceptor(verifier TokenVerifier, log *zap.Logger, protectedPrefixes ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !isProtected(info.FullMethod, protectedPrefixes) {
			return handler(ctx, req)
		}

		token := bearerFromMetadata(ctx)
		if token == "" {
			return nil, pkgerrors.ToGRPC(pkgerrors.ErrUnauthorized)
		}

		userInfo, err := verifier.ParseAccessToken(token)
		if err != nil {
			logger.WithContext(ctx, log).Warn("invalid jwt token", zap.String("method", info.FullMethod), zap.Error(err))
			return nil, pkgerrors.ToGRPC(pkgerrors.ErrPermissionDenied)
		}

		ctx = security.WithUserInfo(ctx, userInfo)
		ctx = logger.WithUserID(ctx, userInfo.Username)
		return handler(ctx, req)
	}
}

func isProtected(fullMethod string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(fullMethod, p) {
			return true
		}
	}
	return false
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get("authorization") {
		if token, found := strings.CutPrefix(v, "Bearer "); found {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
