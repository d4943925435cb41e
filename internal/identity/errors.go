package identity

import "errors"

// Identity errors.
var (
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when creating a user with a taken email.
	ErrEmailExists = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for expired or unknown tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)
