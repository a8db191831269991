package user

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	Username string   `validate:"required,username"`
	Password string   `validate:"required"`
	Roles    []string `validate:"required,min=1,unique,dive,required"`
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	ID       string
	Username string
	Message  string
}

// UpdateUserRequest replaces username, roles and active flag of an existing
// user. Password is optional; when empty the stored hash is kept.
type UpdateUserRequest struct {
	ID       string   `validate:"required"`
	Username string   `validate:"required,username"`
	Roles    []string `validate:"required,min=1,unique,dive,required"`
	Active   *bool    `validate:"required"`
	Password string
}

// UpdateUserResponse represents the response payload after updating a user.
type UpdateUserResponse struct {
	ID       string
	Username string
	Message  string
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID string
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID       string
	Username string
	Message  string
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users []User
}

// User is a user summary. It never carries the password hash.
type User struct {
	ID       string
	Username string
	Roles    []string
	Active   bool
}
