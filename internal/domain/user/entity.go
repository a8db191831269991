package user

import "errors"

// ErrDuplicateUsername is returned by stores when their unique index on
// username rejects a write.
var ErrDuplicateUsername = errors.New("duplicate username")

// ErrUserNotFound is returned by stores when a write targets a user that no
// longer exists.
var ErrUserNotFound = errors.New("user not found")

// User represents a user entity in the system.
type User struct {
	ID           string   // ID is assigned by the store on creation and never changes
	Username     string   // Username is unique across all users
	PasswordHash string   // PasswordHash is a bcrypt hash, never the plaintext
	Roles        []string // Roles holds at least one role identifier
	Active       bool     // Active marks whether the user may log in
}

// Summary returns a copy of the user without its password hash.
func (u User) Summary() User {
	u.PasswordHash = ""
	u.Roles = append([]string(nil), u.Roles...)
	return u
}
