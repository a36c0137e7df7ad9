package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/shellpad/internal/ansi"
)

// toTcellStyle converts an engine cell style to a tcell style.
func toTcellStyle(s ansi.Style) tcell.Style {
	style := tcell.StyleDefault

	if !s.Foreground.Default {
		style = style.Foreground(toTcellColor(s.Foreground))
	}
	if !s.Background.Default {
		style = style.Background(toTcellColor(s.Background))
	}

	if s.Attrs.Has(ansi.AttrBold) {
		style = style.Bold(true)
	}
	if s.Attrs.Has(ansi.AttrDim) {
		style = style.Dim(true)
	}
	if s.Attrs.Has(ansi.AttrItalic) {
		style = style.Italic(true)
	}
	if s.Attrs.Has(ansi.AttrUnderline) {
		style = style.Underline(true)
	}
	if s.Attrs.Has(ansi.AttrBlink) {
		style = style.Blink(true)
	}
	if s.Attrs.Has(ansi.AttrReverse) {
		style = style.Reverse(true)
	}
	if s.Attrs.Has(ansi.AttrStrike) {
		style = style.StrikeThrough(true)
	}

	return style
}

func toTcellColor(c ansi.Color) tcell.Color {
	if c.Index >= 0 {
		return tcell.PaletteColor(c.Index)
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
