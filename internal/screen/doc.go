// Package screen maintains the terminal display state: a bounded grid
// of styled cells plus an append-only scrollback of rows that have
// scrolled off the top.
//
// The grid is mutated exclusively through Apply, which consumes the
// operations produced by the ansi parser. Rows are addressed two ways:
// grid coordinates (0-based, relative to the visible screen) and
// absolute offsets that keep counting as rows move into scrollback, so
// a row keeps its address for as long as it is retained. Readers take
// an immutable Snapshot rather than holding references into the grid.
package screen
