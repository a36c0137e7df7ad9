package screen

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dshills/shellpad/internal/ansi"
)

// Cell is a single character cell in the grid.
type Cell struct {
	Rune  rune
	Width int // display columns (1 or 2); 0 marks the spacer after a wide rune
	Style ansi.Style
}

// BlankCell returns an empty cell carrying the given style.
func BlankCell(style ansi.Style) Cell {
	return Cell{Rune: ' ', Width: 1, Style: style}
}

// RuneDisplayWidth returns the number of columns a rune occupies.
// Zero-width runes report 0 and control runes are treated as invisible.
func RuneDisplayWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// Line is a row of cells.
type Line []Cell

// Text returns the line's characters with trailing blanks removed.
// Wide-rune spacer cells contribute nothing.
func (l Line) Text() string {
	var b strings.Builder
	end := len(l)
	for end > 0 {
		c := l[end-1]
		if c.Width == 0 || (c.Rune == ' ' && c.Style.Attrs == 0) {
			end--
			continue
		}
		break
	}
	for _, c := range l[:end] {
		if c.Width == 0 {
			continue
		}
		b.WriteRune(c.Rune)
	}
	return b.String()
}

// Clone returns an independent copy of the line.
func (l Line) Clone() Line {
	out := make(Line, len(l))
	copy(out, l)
	return out
}

func blankLine(cols int, style ansi.Style) Line {
	l := make(Line, cols)
	for i := range l {
		l[i] = BlankCell(style)
	}
	return l
}
