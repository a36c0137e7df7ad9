package ansi

// Op is a single edit operation decoded from the byte stream.
// The screen model applies ops; the command boundary tracker observes
// the OSC ops in the same stream.
type Op interface {
	op()
}

// EraseMode selects the range of an erase operation, matching the
// ANSI parameter values.
type EraseMode int

const (
	// EraseToEnd erases from the cursor to the end of the line/display.
	EraseToEnd EraseMode = 0
	// EraseToStart erases from the start of the line/display through the cursor.
	EraseToStart EraseMode = 1
	// EraseAll erases the whole line/display.
	EraseAll EraseMode = 2
)

// WriteChar writes one glyph at the cursor using the current style.
type WriteChar struct {
	Rune rune
}

// MoveCursorTo moves the cursor to an absolute position (0-indexed).
type MoveCursorTo struct {
	Row, Col int
}

// MoveCursorBy moves the cursor relative to its current position.
type MoveCursorBy struct {
	DX, DY int
}

// CursorColumn moves the cursor to an absolute column (0-indexed).
type CursorColumn struct {
	Col int
}

// CursorRow moves the cursor to an absolute row (0-indexed).
type CursorRow struct {
	Row int
}

// LineFeed moves the cursor down one row, scrolling at the bottom.
type LineFeed struct{}

// CarriageReturn moves the cursor to column zero.
type CarriageReturn struct{}

// Backspace moves the cursor left one column, stopping at zero.
type Backspace struct{}

// Tab advances the cursor to the next 8-column tab stop.
type Tab struct{}

// ReverseLineFeed moves the cursor up one row, scrolling at the top.
type ReverseLineFeed struct{}

// EraseInDisplay clears a region of the display without moving the cursor.
type EraseInDisplay struct {
	Mode EraseMode
}

// EraseInLine clears a region of the cursor line without moving the cursor.
type EraseInLine struct {
	Mode EraseMode
}

// EraseChars blanks N cells at the cursor.
type EraseChars struct {
	N int
}

// DeleteChars removes N cells at the cursor, shifting the rest left.
type DeleteChars struct {
	N int
}

// InsertChars inserts N blank cells at the cursor, shifting the rest right.
type InsertChars struct {
	N int
}

// InsertLines inserts N blank lines at the cursor within the scroll region.
type InsertLines struct {
	N int
}

// DeleteLines deletes N lines at the cursor within the scroll region.
type DeleteLines struct {
	N int
}

// ScrollUp scrolls the scroll region up N lines.
type ScrollUp struct {
	N int
}

// ScrollDown scrolls the scroll region down N lines.
type ScrollDown struct {
	N int
}

// SetScrollRegion sets the scroll region (0-indexed, inclusive).
type SetScrollRegion struct {
	Top, Bottom int
}

// ResetStyle resets colors and attributes to defaults.
type ResetStyle struct{}

// SetForeground sets the current foreground color.
type SetForeground struct {
	Color Color
}

// SetBackground sets the current background color.
type SetBackground struct {
	Color Color
}

// AddAttrs adds attribute bits to the current style.
type AddAttrs struct {
	Attrs Attr
}

// RemoveAttrs removes attribute bits from the current style.
type RemoveAttrs struct {
	Attrs Attr
}

// SaveCursor saves the cursor position and current style.
type SaveCursor struct{}

// RestoreCursor restores the saved cursor position and style.
type RestoreCursor struct{}

// SetCursorVisible shows or hides the cursor.
type SetCursorVisible struct {
	Visible bool
}

// SetAutoWrap enables or disables auto-wrap at the last column.
type SetAutoWrap struct {
	Enabled bool
}

// SetOriginMode enables or disables scroll-region-relative addressing.
type SetOriginMode struct {
	Enabled bool
}

// SetTitle sets the window title (OSC 0/2).
type SetTitle struct {
	Text string
}

// OSCEvent is an operating-system-command string the screen does not
// consume itself: working directory reports (OSC 7), shell integration
// command markers (OSC 133), and anything else the host may care about.
type OSCEvent struct {
	Cmd  int
	Data string
}

// Bell is the BEL control code.
type Bell struct{}

// Reset is a full terminal reset (RIS).
type Reset struct{}

// Unknown is a well-formed but unrecognized sequence, preserved for
// diagnostics and dropped by the screen model.
type Unknown struct {
	Seq string
}

func (WriteChar) op()        {}
func (MoveCursorTo) op()     {}
func (MoveCursorBy) op()     {}
func (CursorColumn) op()     {}
func (CursorRow) op()        {}
func (LineFeed) op()         {}
func (CarriageReturn) op()   {}
func (Backspace) op()        {}
func (Tab) op()              {}
func (ReverseLineFeed) op()  {}
func (EraseInDisplay) op()   {}
func (EraseInLine) op()      {}
func (EraseChars) op()       {}
func (DeleteChars) op()      {}
func (InsertChars) op()      {}
func (InsertLines) op()      {}
func (DeleteLines) op()      {}
func (ScrollUp) op()         {}
func (ScrollDown) op()       {}
func (SetScrollRegion) op()  {}
func (ResetStyle) op()       {}
func (SetForeground) op()    {}
func (SetBackground) op()    {}
func (AddAttrs) op()         {}
func (RemoveAttrs) op()      {}
func (SaveCursor) op()       {}
func (RestoreCursor) op()    {}
func (SetCursorVisible) op() {}
func (SetAutoWrap) op()      {}
func (SetOriginMode) op()    {}
func (SetTitle) op()         {}
func (OSCEvent) op()         {}
func (Bell) op()             {}
func (Reset) op()            {}
func (Unknown) op()          {}
