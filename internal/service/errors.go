package service

import "errors"

// Error taxonomy shared by services and mapped to HTTP status codes in handlers.
var (
	ErrDuplicateIdentity  = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid login information")
	ErrUnauthorized       = errors.New("invalid or expired token")
	ErrRevoked            = errors.New("refresh token has been revoked")
	ErrForbidden          = errors.New("not authorized for this resource")
	ErrNotFound           = errors.New("not found")
	ErrAttemptCompleted   = errors.New("attempt already completed")
	ErrUserLocked         = errors.New("too many failed login attempts")
)
