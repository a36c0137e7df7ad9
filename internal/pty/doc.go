// Package pty owns the pseudo-terminal-backed child process: spawning
// the shell, raw byte I/O on the master side, window resizes, signal
// delivery to the child's process group, and bounded-grace teardown.
package pty
