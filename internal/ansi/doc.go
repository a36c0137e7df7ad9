// Package ansi parses the terminal control-sequence protocol into a
// stream of edit operations.
//
// The parser is an explicit byte-level state machine (ground, escape,
// CSI entry/param/intermediate, OSC, DCS). It is fully incremental:
// output arrives from the PTY in arbitrarily-sized chunks that may
// split an escape sequence or a multi-byte UTF-8 character anywhere,
// so all in-progress sequence state carries across Feed calls. Feeding
// a byte stream one byte at a time yields the same operations as
// feeding it in a single chunk.
//
// Malformed or unrecognized sequences never produce an error: the
// parser emits Unknown (or silently discards) and returns to ground
// state. Real shells emit non-conformant sequences; robustness wins
// over strictness here.
//
// The package also owns the protocol-level color and attribute model
// (16/256/RGB colors, SGR attribute bits) that the screen model
// stores per cell.
package ansi
