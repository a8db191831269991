package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "user-service/pkg/errors"
)

// Error codes carried in the error field of ErrorResponse.
const (
	CodeValidation    = "validation_error"
	CodeNotFound      = "not_found"
	CodeAlreadyExists = "already_exists"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeInternal      = "internal_error"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// Status maps a usecase error to an HTTP status and error code. Missing
// records are reported as 400, matching the public contract of /users.
func Status(err error) (int, string) {
	var (
		validationErr   *pkgerrors.ValidationError
		notFoundErr     *pkgerrors.NotFoundError
		alreadyExistErr *pkgerrors.AlreadyExistsError
		unauthorizedErr *pkgerrors.UnauthorizedError
		forbiddenErr    *pkgerrors.ForbiddenError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, CodeValidation
	case errors.As(err, &notFoundErr):
		return http.StatusBadRequest, CodeNotFound
	case errors.As(err, &alreadyExistErr):
		return http.StatusConflict, CodeAlreadyExists
	case errors.As(err, &unauthorizedErr):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.As(err, &forbiddenErr):
		return http.StatusForbidden, CodeForbidden
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// Error writes err as a JSON error response and aborts the chain. Internal
// errors never leak their message.
func Error(c *gin.Context, err error) {
	status, code := Status(err)
	message := err.Error()
	if code == CodeInternal {
		message = "An internal error occurred"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}

// Abort writes a JSON error response with an explicit status and aborts.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}
