package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeSessionSuperseded  = "SESSION_SUPERSEDED"
	textCodeInvalidCredentials = "INVALID_CREDENTIALS"
	textCodeMissingIdentity    = "MISSING_IDENTITY"
	textCodeVerificationFailed = "IDENTITY_VERIFICATION_FAILED"
	textCodeRemoteUnavailable  = "REMOTE_UNAVAILABLE"
)

// supersededMessage is the fragment the remote API uses when the session
// was replaced by a login from a different device.
const supersededMessage = "logged in from another device"

// ErrSessionSuperseded is returned when the remote service reports that the
// session was taken over by another device.
var ErrSessionSuperseded = goerrors.New("session logged in from another device", goerrors.CategoryAuth).
	WithTextCode(textCodeSessionSuperseded).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is returned when login credentials are rejected.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingIdentity is returned when the API response carries no identity
var ErrMissingIdentity = goerrors.New("identity record is missing", goerrors.CategoryBadInput).
	WithTextCode(textCodeMissingIdentity).
	WithCode(goerrors.CodeBadRequest)

// ErrVerificationFailed is returned when the identity could not be verified
var ErrVerificationFailed = goerrors.New("unable to verify identity", goerrors.CategoryAuth).
	WithTextCode(textCodeVerificationFailed).
	WithCode(goerrors.CodeUnauthorized)

// ErrRemoteUnavailable is returned on transport failures talking to the API
var ErrRemoteUnavailable = goerrors.New("remote service unavailable", goerrors.CategoryOperation).
	WithTextCode(textCodeRemoteUnavailable).
	WithCode(goerrors.CodeInternal)

// IsSupersededError will check if the error reports a session that was
// superseded by a login on another device
func IsSupersededError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == textCodeSessionSuperseded {
		return true
	}

	return IsSupersededMessage(err.Error())
}

// IsSupersededMessage will check if a remote error message reports a
// superseded session
func IsSupersededMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), supersededMessage)
}

// IsInvalidCredentialsError will check for rejected credentials
func IsInvalidCredentialsError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCodeInvalidCredentials
	}
	return false
}
