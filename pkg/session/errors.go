package session

import "errors"

var (
	// ErrSessionNotFound is returned when a token has no stored session
	ErrSessionNotFound = errors.New("session not found")
	// ErrProfileNotFound is returned when a user has no profile row
	ErrProfileNotFound = errors.New("profile not found")
)
