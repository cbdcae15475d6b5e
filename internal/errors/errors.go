package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console
var (
	// Authentication errors
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Session errors
	ErrNoSession      = errors.New("no session")
	ErrStaleRefresh   = errors.New("stale refresh")
	ErrStorage        = errors.New("session storage failure")
	ErrCorruptSession = errors.New("corrupt session record")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrValidation     = errors.New("validation failed")
	ErrUpstream       = errors.New("upstream api error")
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

// Join combines errors, as errors.Join
func Join(errs ...error) error {
	return errors.Join(errs...)
}
