package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToGRPC(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode codes.Code
		wantMsg  string
	}{
		{"validation", NewValidationError("username", "All fields are required"), codes.InvalidArgument, "All fields are required"},
		{"not found", NewNotFoundError("user", "User not found"), codes.NotFound, "User not found"},
		{"already exists", NewAlreadyExistsError("user", "Duplicate username"), codes.AlreadyExists, "Duplicate username"},
		{"unauthorized", NewUnauthorizedError("Unauthorized"), codes.Unauthenticated, "Unauthorized"},
		{"forbidden", NewForbiddenError("Forbidden"), codes.PermissionDenied, "Forbidden"},
		{"wrapped", fmt.Errorf("outer: %w", NewNotFoundError("user", "User not found")), codes.NotFound, "User not found"},
		{"unknown", errors.New("connection reset by peer"), codes.Internal, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(ToGRPC(tt.err))
			assert.True(t, ok)
			assert.Equal(t, tt.wantCode, st.Code())
			assert.Equal(t, tt.wantMsg, st.Message())
		})
	}

	assert.NoError(t, ToGRPC(nil))
}

func TestValidationError_KeepsFieldForLogs(t *testing.T) {
	err := NewValidationError("Roles", "All fields are required")
	assert.Equal(t, "All fields are required", err.Error())
	assert.Equal(t, "Roles", err.Field)
}

func TestNotFoundError_DefaultMessage(t *testing.T) {
	err := NewNotFoundError("user", "")
	assert.Equal(t, "user not found", err.Error())
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternalError("failed to save", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save: disk full", err.Error())
}
