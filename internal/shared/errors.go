package shared

import "errors"

var (
	// ErrNotFound indicates the requested entity or association does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a write would violate a uniqueness invariant.
	ErrDuplicate = errors.New("duplicate resource")
	// ErrValidation indicates required parameters are missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrTokenExpired indicates the bearer access token was rejected as expired.
	ErrTokenExpired = errors.New("access token expired")
	// ErrInvalidCredentials indicates login or refresh failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable indicates a network or timeout failure talking to a collaborator.
	ErrUnavailable = errors.New("service unavailable")
	// ErrInternal indicates an unclassified 500-class failure on the remote side.
	ErrInternal = errors.New("internal error")
)
