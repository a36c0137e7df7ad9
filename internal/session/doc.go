// Package session assembles one terminal tab: the PTY-backed child
// process, the escape-sequence parser, the screen and scrollback
// model, the command boundary tracker, and the input router.
//
// One goroutine per session pumps PTY output through the parser and
// applies the resulting operations, so the display model has a single
// writer; hosts read through Snapshot and the tracker's accessors.
// Manager is the tab bookkeeping above it.
package session
