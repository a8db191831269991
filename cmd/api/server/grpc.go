package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"

	grpcadapter "user-service/internal/adapter/grpc"
	"user-service/internal/adapter/grpc/middleware"
	"user-service/pkg/logger"
)

// SetupGRPC creates and configures the gRPC server
func SetupGRPC(svc grpcadapter.UserServiceServer, verifier middleware.TokenVerifier, l *zap.Logger) *grpc.Server {
	// Request IDs first so auth failures are logged with one
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			middleware.AuthInterceptor(verifier, l, "/"+grpcadapter.ServiceName+"/"),
		),
	)
	grpcadapter.RegisterUserServiceServer(grpcServer, svc)

	return grpcServer
}
