// Package key defines the keyboard event model shared by the input
// router and embedding hosts.
//
// A host translates its native key events (tcell, GUI toolkit, editor
// API) into key.Event values before handing them to the router. The
// package also knows how to encode an event into the byte sequence a
// terminal would transmit for it, which is what the router writes to
// the PTY in terminal mode.
package key
