package security

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// MaxUsernameLength matches the width of the username column, in runes
	MaxUsernameLength = 50
)

var (
	ErrUsernameEmpty   = errors.New("username is empty")
	ErrUsernameTooLong = errors.New("username too long")
)

// ValidateUsername checks that a username is non-blank and fits the store.
// Any characters are accepted; the value is stored exactly as sent.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrUsernameEmpty
	}

	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}

	return nil
}
