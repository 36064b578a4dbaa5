package auth_test

import (
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-wallet-auth"
	"github.com/stretchr/testify/assert"
)

func TestIsSupersededError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "sentinel", err: auth.ErrSessionSuperseded, expected: true},
		{name: "wrapped sentinel", err: fmt.Errorf("verify: %w", auth.ErrSessionSuperseded), expected: true},
		{name: "plain message", err: errors.New("User logged in from another device"), expected: true},
		{name: "rich error with message", err: goerrors.New("You are LOGGED IN FROM ANOTHER DEVICE", goerrors.CategoryAuth), expected: true},
		{name: "other auth error", err: auth.ErrVerificationFailed, expected: false},
		{name: "generic", err: errors.New("connection reset"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.IsSupersededError(tt.err))
		})
	}
}

func TestIsInvalidCredentialsError(t *testing.T) {
	assert.True(t, auth.IsInvalidCredentialsError(auth.ErrInvalidCredentials))
	assert.True(t, auth.IsInvalidCredentialsError(fmt.Errorf("login: %w", auth.ErrInvalidCredentials)))
	assert.False(t, auth.IsInvalidCredentialsError(auth.ErrSessionSuperseded))
	assert.False(t, auth.IsInvalidCredentialsError(errors.New("invalid credentials")))
	assert.False(t, auth.IsInvalidCredentialsError(nil))
}

func TestSentinelCategories(t *testing.T) {
	assert.Equal(t, goerrors.CategoryAuth, auth.ErrSessionSuperseded.Category)
	assert.Equal(t, goerrors.CodeUnauthorized, auth.ErrInvalidCredentials.Code)
	assert.Equal(t, goerrors.CategoryBadInput, auth.ErrMissingIdentity.Category)
	assert.Equal(t, goerrors.CategoryOperation, auth.ErrRemoteUnavailable.Category)
}
