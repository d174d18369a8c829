package errors

import (
	"errors"
	"fmt"
)

// Common error types for the schema server
var (
	// Authentication errors
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired")
	ErrNoRefreshToken      = errors.New("no refresh token available")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInvalidOAuthState   = errors.New("invalid oauth state")

	// Lookup errors
	ErrObjectNotFound = errors.New("object not found")
	ErrEntityNotFound = errors.New("entity not found")

	// Data Cloud errors
	ErrDataCloudDisabled    = errors.New("data cloud not enabled")
	ErrDataCloudCredentials = errors.New("data cloud credential exchange failed")

	// General errors
	ErrVendorAPI = errors.New("salesforce api error")
	ErrInternal  = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
