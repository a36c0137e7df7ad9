package pty

import "errors"

var (
	// ErrSpawn indicates the child process could not be created.
	ErrSpawn = errors.New("cannot spawn child process")
	// ErrClosed indicates a write or resize against a closed PTY.
	ErrClosed = errors.New("pty is closed")
	// ErrTerminateTimeout indicates the child outlived the forced-kill
	// grace period. Resources are released regardless.
	ErrTerminateTimeout = errors.New("child process did not terminate within grace period")
)
