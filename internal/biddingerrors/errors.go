package biddingerrors

import "errors"

// Repository-level errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrConflict        = errors.New("listing with this id already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("username or email already in use")
)

// business logic errors
var (
	ErrInvalidFormat      = errors.New("invalid bid value format")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidObjectKey   = errors.New("invalid object key")
)

// transport errors
var (
	ErrUnauthenticated = errors.New("unauthenticated")
)
