package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrDeclined is returned when the user explicitly denied the device
	// code authorization request.
	ErrDeclined = errors.New("user declined to authorize the device code")

	// ErrCodeExpired is returned when the device code expired before the
	// user completed authorization.
	ErrCodeExpired = errors.New("device code expired")

	// ErrCancelled is returned when the caller cancelled an outstanding
	// authentication attempt. It is a quiet outcome, not a failure.
	ErrCancelled = errors.New("authentication cancelled")

	errAuthorizationPending = errors.New("authorization pending")
	errSlowDown             = errors.New("slow down")
)

// TokenError is a non-retryable error response from the token endpoint.
type TokenError struct {
	Code        string
	Description string
}

func (e *TokenError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("token endpoint error: %s", e.Code)
	}
	return fmt.Sprintf("token endpoint error %s: %s", e.Code, e.Description)
}
