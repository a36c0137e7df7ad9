package session

import "errors"

var (
	// ErrNotFound indicates a session id the manager does not know.
	ErrNotFound = errors.New("session not found")

	// ErrManagerClosed indicates the manager has been shut down.
	ErrManagerClosed = errors.New("session manager closed")
)
