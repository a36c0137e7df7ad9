package ansi

// Color represents a terminal color.
type Color struct {
	R, G, B uint8
	Index   int  // -1 for RGB, 0-255 for indexed
	Default bool // Use default fg/bg
}

// DefaultForeground is the default foreground color.
var DefaultForeground = Color{Default: true}

// DefaultBackground is the default background color.
var DefaultBackground = Color{Default: true}

// Standard ANSI colors (indices 0-15).
var (
	ColorBlack         = Color{Index: 0, R: 0, G: 0, B: 0}
	ColorRed           = Color{Index: 1, R: 205, G: 0, B: 0}
	ColorGreen         = Color{Index: 2, R: 0, G: 205, B: 0}
	ColorYellow        = Color{Index: 3, R: 205, G: 205, B: 0}
	ColorBlue          = Color{Index: 4, R: 0, G: 0, B: 238}
	ColorMagenta       = Color{Index: 5, R: 205, G: 0, B: 205}
	ColorCyan          = Color{Index: 6, R: 0, G: 205, B: 205}
	ColorWhite         = Color{Index: 7, R: 229, G: 229, B: 229}
	ColorBrightBlack   = Color{Index: 8, R: 127, G: 127, B: 127}
	ColorBrightRed     = Color{Index: 9, R: 255, G: 0, B: 0}
	ColorBrightGreen   = Color{Index: 10, R: 0, G: 255, B: 0}
	ColorBrightYellow  = Color{Index: 11, R: 255, G: 255, B: 0}
	ColorBrightBlue    = Color{Index: 12, R: 92, G: 92, B: 255}
	ColorBrightMagenta = Color{Index: 13, R: 255, G: 0, B: 255}
	ColorBrightCyan    = Color{Index: 14, R: 0, G: 255, B: 255}
	ColorBrightWhite   = Color{Index: 15, R: 255, G: 255, B: 255}
)

// Palette is the standard 16-color palette.
var Palette = []Color{
	ColorBlack, ColorRed, ColorGreen, ColorYellow,
	ColorBlue, ColorMagenta, ColorCyan, ColorWhite,
	ColorBrightBlack, ColorBrightRed, ColorBrightGreen, ColorBrightYellow,
	ColorBrightBlue, ColorBrightMagenta, ColorBrightCyan, ColorBrightWhite,
}

// ColorFromIndex returns a color from a 256-color index.
func ColorFromIndex(index int) Color {
	if index < 0 || index > 255 {
		return DefaultForeground
	}

	if index < 16 {
		return Palette[index]
	}

	// 216-color cube (indices 16-231)
	if index < 232 {
		index -= 16
		r := uint8((index / 36) * 51)
		g := uint8(((index / 6) % 6) * 51)
		b := uint8((index % 6) * 51)
		return Color{R: r, G: g, B: b, Index: index + 16}
	}

	// Grayscale (indices 232-255)
	gray := uint8((index-232)*10 + 8)
	return Color{R: gray, G: gray, B: gray, Index: index}
}

// ColorFromRGB creates an RGB color.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Index: -1}
}

// Attr represents text attributes as a bitmask.
type Attr uint16

const (
	AttrNone      Attr = 0
	AttrBold      Attr = 1 << 0
	AttrDim       Attr = 1 << 1
	AttrItalic    Attr = 1 << 2
	AttrUnderline Attr = 1 << 3
	AttrBlink     Attr = 1 << 4
	AttrReverse   Attr = 1 << 5
	AttrHidden    Attr = 1 << 6
	AttrStrike    Attr = 1 << 7
)

// Has returns true if the attribute is set.
func (a Attr) Has(attr Attr) bool {
	return a&attr != 0
}

// Style is a complete text style: colors plus attribute bits.
type Style struct {
	Foreground Color
	Background Color
	Attrs      Attr
}

// DefaultStyle returns the reset style.
func DefaultStyle() Style {
	return Style{
		Foreground: DefaultForeground,
		Background: DefaultBackground,
		Attrs:      AttrNone,
	}
}
