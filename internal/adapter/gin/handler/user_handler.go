package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-service/internal/adapter/gin/response"
	"user-service/internal/usecase/user"
	pkgerrors "user-service/pkg/errors"
	"user-service/pkg/logger"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// UpdateUserRequest represents the HTTP request body for updating a user.
// Active is a pointer so that an absent field can be told apart from false.
type UpdateUserRequest struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Active   *bool    `json:"active"`
	Password string   `json:"password,omitempty"`
}

// DeleteUserRequest represents the HTTP request body for deleting a user
type DeleteUserRequest struct {
	ID string `json:"id"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Active   bool     `json:"active"`
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	resp, err := h.uc.ListUsers(ctx)
	if err != nil {
		h.fail(c, "ListUsers", err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = UserResponse{
			ID:       u.ID,
			Username: u.Username,
			Roles:    u.Roles,
			Active:   u.Active,
		}
	}

	c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, "CreateUser", err, user.MsgAllFieldsRequired)
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Username: req.Username,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		h.fail(c, "CreateUser", err)
		return
	}

	c.JSON(http.StatusCreated, response.MessageResponse{Message: resp.Message})
}

// UpdateUser handles PATCH /users
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, "UpdateUser", err, user.MsgAllFieldsRequired)
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:       req.ID,
		Username: req.Username,
		Roles:    req.Roles,
		Active:   req.Active,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, "UpdateUser", err)
		return
	}

	c.JSON(http.StatusCreated, response.MessageResponse{Message: resp.Message})
}

// DeleteUser handles DELETE /users
func (h *UserHandler) DeleteUser(c *gin.Context) {
	var req DeleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badBody(c, "DeleteUser", err, user.MsgUserIDRequired)
		return
	}

	resp, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: req.ID})
	if err != nil {
		h.fail(c, "DeleteUser", err)
		return
	}

	c.JSON(http.StatusOK, resp.Message)
}

// badBody answers an unparseable body the way the usecase answers missing
// fields.
func (h *UserHandler) badBody(c *gin.Context, op string, err error, message string) {
	logger.WithContext(c.Request.Context(), h.log).Warn("invalid request body", zap.String("op", op), zap.Error(err))
	response.Error(c, pkgerrors.NewValidationError("", message))
}

func (h *UserHandler) fail(c *gin.Context, op string, err error) {
	status, _ := response.Status(err)
	log := logger.WithContext(c.Request.Context(), h.log)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("op", op), zap.Error(err))
	} else {
		log.Info("request rejected", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	}
	response.Error(c, err)
}
