package grpc

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"user-service/internal/usecase/user"
	pkgerrors "user-service/pkg/errors"
	"user-service/pkg/logger"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "users.v1.UserService"

// UserServiceServer is the server API for users.v1.UserService. Messages are
// protobuf well-known types so the service needs no generated code.
type UserServiceServer interface {
	ListUsers(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes users.v1.UserService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListUsers", Handler: unaryHandler("ListUsers", UserServiceServer.ListUsers)},
		{MethodName: "CreateUser", Handler: unaryHandler("CreateUser", UserServiceServer.CreateUser)},
		{MethodName: "UpdateUser", Handler: unaryHandler("UpdateUser", UserServiceServer.UpdateUser)},
		{MethodName: "DeleteUser", Handler: unaryHandler("DeleteUser", UserServiceServer.DeleteUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "users/v1/user_service.proto",
}

// RegisterUserServiceServer registers srv on s.
func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler[Req, Resp any](method string, call func(UserServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(UserServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(UserServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// UserService implements the gRPC user service on top of the user usecase
type UserService struct {
	uc  user.Usecase
	log *zap.Logger
}

var _ UserServiceServer = (*UserService)(nil)

// NewUserService creates a new gRPC user service
func NewUserService(uc user.Usecase, log *zap.Logger) *UserService {
	return &UserService{uc: uc, log: log}
}

// ListUsers handles gRPC ListUsers request
func (s *UserService) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	resp, err := s.uc.ListUsers(ctx)
	if err != nil {
		return nil, s.fail(ctx, "ListUsers", err)
	}

	values := make([]*structpb.Value, len(resp.Users))
	for i, u := range resp.Users {
		values[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"id":       structpb.NewStringValue(u.ID),
			"username": structpb.NewStringValue(u.Username),
			"roles":    stringList(u.Roles),
			"active":   structpb.NewBoolValue(u.Active),
		}})
	}
	return &structpb.ListValue{Values: values}, nil
}

// CreateUser handles gRPC CreateUser request
func (s *UserService) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	resp, err := s.uc.CreateUser(ctx, user.CreateUserRequest{
		Username: stringField(req, "username"),
		Password: stringField(req, "password"),
		Roles:    stringsField(req, "roles"),
	})
	if err != nil {
		return nil, s.fail(ctx, "CreateUser", err)
	}
	return messageStruct(resp.Message), nil
}

// UpdateUser handles gRPC UpdateUser request
func (s *UserService) UpdateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	resp, err := s.uc.UpdateUser(ctx, user.UpdateUserRequest{
		ID:       stringField(req, "id"),
		Username: stringField(req, "username"),
		Roles:    stringsField(req, "roles"),
		Active:   boolField(req, "active"),
		Password: stringField(req, "password"),
	})
	if err != nil {
		return nil, s.fail(ctx, "UpdateUser", err)
	}
	return messageStruct(resp.Message), nil
}

// DeleteUser handles gRPC DeleteUser request
func (s *UserService) DeleteUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	resp, err := s.uc.DeleteUser(ctx, user.DeleteUserRequest{ID: stringField(req, "id")})
	if err != nil {
		return nil, s.fail(ctx, "DeleteUser", err)
	}
	return messageStruct(resp.Message), nil
}

func (s *UserService) fail(ctx context.Context, op string, err error) error {
	logger.WithContext(ctx, s.log).Info("grpc request failed", zap.String("op", op), zap.Error(err))
	return pkgerrors.ToGRPC(err)
}

func messageStruct(msg string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{"message": structpb.NewStringValue(msg)}}
}

func stringList(items []string) *structpb.Value {
	values := make([]*structpb.Value, len(items))
	for i, item := range items {
		values[i] = structpb.NewStringValue(item)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// stringsField reads a list of strings. Non-string entries become empty
// strings so that validation rejects them.
func stringsField(s *structpb.Struct, key string) []string {
	list := s.GetFields()[key].GetListValue()
	if list == nil {
		return nil
	}
	out := make([]string, len(list.GetValues()))
	for i, v := range list.GetValues() {
		out[i] = v.GetStringValue()
	}
	return out
}

// boolField returns nil unless key holds a boolean.
func boolField(s *structpb.Struct, key string) *bool {
	v, ok := s.GetFields()[key].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return nil
	}
	b := v.BoolValue
	return &b
}
