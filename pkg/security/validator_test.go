package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		expectedErr error
	}{
		{
			name:     "simple name",
			username: "alice",
		},
		{
			name:     "allowed punctuation",
			username: "john.doe-01_x+qa@corp",
		},
		{
			name:     "unicode letters",
			username: "Zoë",
		},
		{
			name:     "exactly max length",
			username: strings.Repeat("a", MaxUsernameLength),
		},
		{
			name:        "empty",
			username:    "",
			expectedErr: ErrUsernameEmpty,
		},
		{
			name:        "blank",
			username:    "   ",
			expectedErr: ErrUsernameEmpty,
		},
		{
			name:        "too long",
			username:    strings.Repeat("a", MaxUsernameLength+1),
			expectedErr: ErrUsernameTooLong,
		},
		{
			name:     "inner space",
			username: "Jane Doe",
		},
		{
			name:     "apostrophe",
			username: "o'neil",
		},
		{
			name:     "multibyte runes at max length",
			username: strings.Repeat("é", MaxUsernameLength),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
