package server

import "errors"

// Server-specific errors
var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrInvalidConfig        = errors.New("invalid server configuration")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrRateLimited          = errors.New("control rate limit exceeded")
	ErrTooManyClients       = errors.New("too many clients")
)
