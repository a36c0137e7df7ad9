package screen

import (
	"sync"

	"github.com/dshills/shellpad/internal/ansi"
)

// Cursor is a position within the grid.
type Cursor struct {
	Row int
	Col int
}

// Screen is the live terminal grid plus its scrollback. All mutation
// goes through Apply or Resize; Snapshot and the row accessors are
// safe to call concurrently with them.
type Screen struct {
	mu sync.RWMutex

	rows int
	cols int
	grid []Line

	cursor      Cursor
	pendingWrap bool

	style ansi.Style

	scrollTop    int
	scrollBottom int

	autoWrap      bool
	originMode    bool
	cursorVisible bool

	saved    savedCursor
	hasSaved bool

	title      string
	scrollback *Scrollback
}

type savedCursor struct {
	cursor Cursor
	style  ansi.Style
	origin bool
}

// New creates a screen of the given size whose evicted rows are
// retained in a scrollback capped at scrollbackLimit rows.
func New(rows, cols, scrollbackLimit int) *Screen {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	s := &Screen{
		rows:          rows,
		cols:          cols,
		scrollTop:     0,
		scrollBottom:  rows - 1,
		style:         ansi.DefaultStyle(),
		autoWrap:      true,
		cursorVisible: true,
		scrollback:    NewScrollback(scrollbackLimit),
	}

	s.grid = make([]Line, rows)
	for i := range s.grid {
		s.grid[i] = blankLine(cols, ansi.DefaultStyle())
	}

	return s
}

// Size returns the grid dimensions.
func (s *Screen) Size() (rows, cols int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows, s.cols
}

// Title returns the window title set by the child, if any.
func (s *Screen) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

// Apply mutates the screen with a batch of parser operations under a
// single write lock, so readers never observe a half-applied batch.
func (s *Screen) Apply(ops []ansi.Op) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range ops {
		s.applyOp(op)
	}
}

func (s *Screen) applyOp(op ansi.Op) {
	switch o := op.(type) {
	case ansi.WriteChar:
		s.writeChar(o.Rune)
	case ansi.MoveCursorTo:
		s.moveCursorTo(o.Row, o.Col)
	case ansi.MoveCursorBy:
		s.moveCursorBy(o.DX, o.DY)
	case ansi.CursorColumn:
		s.pendingWrap = false
		s.cursor.Col = clamp(o.Col, 0, s.cols-1)
	case ansi.CursorRow:
		s.pendingWrap = false
		row := o.Row
		if s.originMode {
			row += s.scrollTop
		}
		s.cursor.Row = clamp(row, 0, s.rows-1)
	case ansi.LineFeed:
		s.lineFeed()
	case ansi.CarriageReturn:
		s.pendingWrap = false
		s.cursor.Col = 0
	case ansi.Backspace:
		s.pendingWrap = false
		if s.cursor.Col > 0 {
			s.cursor.Col--
		}
	case ansi.Tab:
		s.pendingWrap = false
		next := (s.cursor.Col/8 + 1) * 8
		s.cursor.Col = clamp(next, 0, s.cols-1)
	case ansi.ReverseLineFeed:
		s.reverseLineFeed()
	case ansi.EraseInDisplay:
		s.eraseInDisplay(o.Mode)
	case ansi.EraseInLine:
		s.eraseInLine(o.Mode)
	case ansi.EraseChars:
		s.eraseChars(o.N)
	case ansi.DeleteChars:
		s.deleteChars(o.N)
	case ansi.InsertChars:
		s.insertChars(o.N)
	case ansi.InsertLines:
		s.insertLines(o.N)
	case ansi.DeleteLines:
		s.deleteLines(o.N)
	case ansi.ScrollUp:
		s.scrollRegionUp(o.N, s.fullRegion())
	case ansi.ScrollDown:
		s.scrollRegionDown(o.N)
	case ansi.SetScrollRegion:
		s.setScrollRegion(o.Top, o.Bottom)
	case ansi.ResetStyle:
		s.style = ansi.DefaultStyle()
	case ansi.SetForeground:
		s.style.Foreground = o.Color
	case ansi.SetBackground:
		s.style.Background = o.Color
	case ansi.AddAttrs:
		s.style.Attrs |= o.Attrs
	case ansi.RemoveAttrs:
		s.style.Attrs &^= o.Attrs
	case ansi.SaveCursor:
		s.saved = savedCursor{cursor: s.cursor, style: s.style, origin: s.originMode}
		s.hasSaved = true
	case ansi.RestoreCursor:
		s.restoreCursor()
	case ansi.SetCursorVisible:
		s.cursorVisible = o.Visible
	case ansi.SetAutoWrap:
		s.autoWrap = o.Enabled
		if !o.Enabled {
			s.pendingWrap = false
		}
	case ansi.SetOriginMode:
		s.originMode = o.Enabled
		s.pendingWrap = false
		s.cursor = Cursor{Row: s.originRow(), Col: 0}
	case ansi.SetTitle:
		s.title = o.Text
	case ansi.Reset:
		s.reset()
	case ansi.OSCEvent, ansi.Bell, ansi.Unknown:
		// Not display state; the session layer observes these from the
		// op stream directly.
	}
}

func (s *Screen) writeChar(r rune) {
	w := RuneDisplayWidth(r)
	if w == 0 {
		// Zero-width runes (combining marks) have no cell of their
		// own; the grid stores one rune per cell, so they are dropped.
		return
	}

	if s.pendingWrap {
		s.pendingWrap = false
		s.cursor.Col = 0
		s.lineFeed()
	}

	if s.cursor.Col+w > s.cols {
		if s.autoWrap {
			s.cursor.Col = 0
			s.lineFeed()
		} else {
			s.cursor.Col = clamp(s.cols-w, 0, s.cols-1)
		}
	}

	row := s.grid[s.cursor.Row]
	row[s.cursor.Col] = Cell{Rune: r, Width: w, Style: s.style}
	if w == 2 && s.cursor.Col+1 < s.cols {
		row[s.cursor.Col+1] = Cell{Rune: 0, Width: 0, Style: s.style}
	}

	next := s.cursor.Col + w
	if next >= s.cols {
		// Deferred wrap: the cursor stays on the last column and the
		// wrap happens when the next character arrives.
		s.cursor.Col = s.cols - 1
		if s.autoWrap {
			s.pendingWrap = true
		}
	} else {
		s.cursor.Col = next
	}
}

func (s *Screen) lineFeed() {
	s.pendingWrap = false
	switch {
	case s.cursor.Row == s.scrollBottom:
		s.scrollRegionUp(1, s.fullRegion())
	case s.cursor.Row < s.rows-1:
		s.cursor.Row++
	}
}

func (s *Screen) reverseLineFeed() {
	s.pendingWrap = false
	switch {
	case s.cursor.Row == s.scrollTop:
		s.scrollRegionDown(1)
	case s.cursor.Row > 0:
		s.cursor.Row--
	}
}

// fullRegion reports whether the scroll region spans the whole grid.
// Only full-region scrolls feed the scrollback.
func (s *Screen) fullRegion() bool {
	return s.scrollTop == 0 && s.scrollBottom == s.rows-1
}

func (s *Screen) scrollRegionUp(n int, toScrollback bool) {
	if n < 1 {
		n = 1
	}
	// Scrolling by more than the region height clears it completely;
	// anything beyond that would only spin and flood the scrollback.
	if size := s.scrollBottom - s.scrollTop + 1; n > size {
		n = size
	}
	for i := 0; i < n; i++ {
		if toScrollback {
			s.scrollback.Append(s.grid[s.scrollTop])
		}
		copy(s.grid[s.scrollTop:s.scrollBottom], s.grid[s.scrollTop+1:s.scrollBottom+1])
		s.grid[s.scrollBottom] = blankLine(s.cols, s.style)
	}
}

func (s *Screen) scrollRegionDown(n int) {
	if n < 1 {
		n = 1
	}
	if size := s.scrollBottom - s.scrollTop + 1; n > size {
		n = size
	}
	for i := 0; i < n; i++ {
		copy(s.grid[s.scrollTop+1:s.scrollBottom+1], s.grid[s.scrollTop:s.scrollBottom])
		s.grid[s.scrollTop] = blankLine(s.cols, s.style)
	}
}

func (s *Screen) moveCursorTo(row, col int) {
	s.pendingWrap = false
	if s.originMode {
		s.cursor.Row = clamp(row+s.scrollTop, s.scrollTop, s.scrollBottom)
	} else {
		s.cursor.Row = clamp(row, 0, s.rows-1)
	}
	s.cursor.Col = clamp(col, 0, s.cols-1)
}

func (s *Screen) moveCursorBy(dx, dy int) {
	s.pendingWrap = false
	minRow, maxRow := 0, s.rows-1
	if s.originMode {
		minRow, maxRow = s.scrollTop, s.scrollBottom
	}
	s.cursor.Row = clamp(s.cursor.Row+dy, minRow, maxRow)
	s.cursor.Col = clamp(s.cursor.Col+dx, 0, s.cols-1)
}

func (s *Screen) eraseInDisplay(mode ansi.EraseMode) {
	s.pendingWrap = false
	switch mode {
	case ansi.EraseToEnd:
		s.eraseLineRange(s.cursor.Row, s.cursor.Col, s.cols)
		for r := s.cursor.Row + 1; r < s.rows; r++ {
			s.grid[r] = blankLine(s.cols, s.style)
		}
	case ansi.EraseToStart:
		for r := 0; r < s.cursor.Row; r++ {
			s.grid[r] = blankLine(s.cols, s.style)
		}
		s.eraseLineRange(s.cursor.Row, 0, s.cursor.Col+1)
	case ansi.EraseAll:
		for r := 0; r < s.rows; r++ {
			s.grid[r] = blankLine(s.cols, s.style)
		}
	}
}

func (s *Screen) eraseInLine(mode ansi.EraseMode) {
	s.pendingWrap = false
	switch mode {
	case ansi.EraseToEnd:
		s.eraseLineRange(s.cursor.Row, s.cursor.Col, s.cols)
	case ansi.EraseToStart:
		s.eraseLineRange(s.cursor.Row, 0, s.cursor.Col+1)
	case ansi.EraseAll:
		s.grid[s.cursor.Row] = blankLine(s.cols, s.style)
	}
}

func (s *Screen) eraseLineRange(row, from, to int) {
	line := s.grid[row]
	from = clamp(from, 0, s.cols)
	to = clamp(to, 0, s.cols)
	for c := from; c < to; c++ {
		line[c] = BlankCell(s.style)
	}
}

func (s *Screen) eraseChars(n int) {
	if n < 1 {
		n = 1
	}
	s.eraseLineRange(s.cursor.Row, s.cursor.Col, s.cursor.Col+n)
}

func (s *Screen) deleteChars(n int) {
	if n < 1 {
		n = 1
	}
	line := s.grid[s.cursor.Row]
	col := s.cursor.Col
	if n > s.cols-col {
		n = s.cols - col
	}
	copy(line[col:], line[col+n:])
	for c := s.cols - n; c < s.cols; c++ {
		line[c] = BlankCell(s.style)
	}
}

func (s *Screen) insertChars(n int) {
	if n < 1 {
		n = 1
	}
	line := s.grid[s.cursor.Row]
	col := s.cursor.Col
	if n > s.cols-col {
		n = s.cols - col
	}
	copy(line[col+n:], line[col:s.cols-n])
	for c := col; c < col+n; c++ {
		line[c] = BlankCell(s.style)
	}
}

// insertLines shifts lines at and below the cursor down within the
// scroll region. Only effective with the cursor inside the region.
func (s *Screen) insertLines(n int) {
	if s.cursor.Row < s.scrollTop || s.cursor.Row > s.scrollBottom {
		return
	}
	savedTop := s.scrollTop
	s.scrollTop = s.cursor.Row
	s.scrollRegionDown(n)
	s.scrollTop = savedTop
	s.cursor.Col = 0
	s.pendingWrap = false
}

// deleteLines removes lines at the cursor, shifting the rest of the
// region up. Deleted lines never reach scrollback.
func (s *Screen) deleteLines(n int) {
	if s.cursor.Row < s.scrollTop || s.cursor.Row > s.scrollBottom {
		return
	}
	savedTop := s.scrollTop
	s.scrollTop = s.cursor.Row
	s.scrollRegionUp(n, false)
	s.scrollTop = savedTop
	s.cursor.Col = 0
	s.pendingWrap = false
}

// setScrollRegion applies DECSTBM. A bottom below zero or past the
// last row means the last row; a degenerate region resets to full.
func (s *Screen) setScrollRegion(top, bottom int) {
	if bottom < 0 || bottom >= s.rows {
		bottom = s.rows - 1
	}
	top = clamp(top, 0, s.rows-1)
	if top >= bottom {
		top, bottom = 0, s.rows-1
	}
	s.scrollTop = top
	s.scrollBottom = bottom
	s.pendingWrap = false
	s.cursor = Cursor{Row: s.originRow(), Col: 0}
}

func (s *Screen) originRow() int {
	if s.originMode {
		return s.scrollTop
	}
	return 0
}

func (s *Screen) restoreCursor() {
	s.pendingWrap = false
	if !s.hasSaved {
		s.cursor = Cursor{}
		s.style = ansi.DefaultStyle()
		return
	}
	s.cursor = Cursor{
		Row: clamp(s.saved.cursor.Row, 0, s.rows-1),
		Col: clamp(s.saved.cursor.Col, 0, s.cols-1),
	}
	s.style = s.saved.style
	s.originMode = s.saved.origin
}

// reset implements RIS: display state returns to power-on defaults.
// Scrollback is history, not display state, and survives.
func (s *Screen) reset() {
	for i := range s.grid {
		s.grid[i] = blankLine(s.cols, ansi.DefaultStyle())
	}
	s.cursor = Cursor{}
	s.pendingWrap = false
	s.style = ansi.DefaultStyle()
	s.scrollTop = 0
	s.scrollBottom = s.rows - 1
	s.autoWrap = true
	s.originMode = false
	s.cursorVisible = true
	s.hasSaved = false
}

// Resize changes the grid dimensions. Columns truncate or pad in
// place, never reflowing earlier wraps. When rows shrink, rows above
// the cursor move to scrollback first; rows below it are dropped.
func (s *Screen) Resize(rows, cols int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cols != s.cols {
		for i, line := range s.grid {
			s.grid[i] = resizeLine(line, cols)
		}
		s.cols = cols
	}

	for len(s.grid) > rows {
		if s.cursor.Row > 0 {
			s.scrollback.Append(s.grid[0])
			s.grid = s.grid[1:]
			s.cursor.Row--
		} else {
			s.grid = s.grid[:len(s.grid)-1]
		}
	}
	for len(s.grid) < rows {
		s.grid = append(s.grid, blankLine(cols, ansi.DefaultStyle()))
	}
	s.rows = rows

	s.scrollTop = 0
	s.scrollBottom = rows - 1
	s.cursor.Row = clamp(s.cursor.Row, 0, rows-1)
	s.cursor.Col = clamp(s.cursor.Col, 0, cols-1)
	s.pendingWrap = false
}

func resizeLine(line Line, cols int) Line {
	if len(line) == cols {
		return line
	}
	if len(line) > cols {
		trimmed := line[:cols]
		// A wide rune split by the cut leaves its spacer behind.
		if cols > 0 && trimmed[cols-1].Width == 2 {
			trimmed[cols-1] = BlankCell(ansi.DefaultStyle())
		}
		return trimmed
	}
	out := make(Line, cols)
	copy(out, line)
	for i := len(line); i < cols; i++ {
		out[i] = BlankCell(ansi.DefaultStyle())
	}
	return out
}

// Snapshot is an immutable copy of the renderable state.
type Snapshot struct {
	Rows          int
	Cols          int
	Cursor        Cursor
	CursorVisible bool
	Title         string
	Lines         []Line
}

// Snapshot returns a copy of the visible grid and cursor. Safe to use
// after subsequent Apply calls.
func (s *Screen) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]Line, len(s.grid))
	for i, line := range s.grid {
		lines[i] = line.Clone()
	}

	return Snapshot{
		Rows:          s.rows,
		Cols:          s.cols,
		Cursor:        s.cursor,
		CursorVisible: s.cursorVisible,
		Title:         s.title,
		Lines:         lines,
	}
}

// AbsoluteRow translates a grid row into its absolute offset in the
// combined scrollback-plus-grid row sequence.
func (s *Screen) AbsoluteRow(gridRow int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scrollback.Appended() + gridRow
}

// CursorAbsoluteRow is the absolute offset of the cursor's row.
func (s *Screen) CursorAbsoluteRow() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scrollback.Appended() + s.cursor.Row
}

// TotalRows is the absolute offset one past the last grid row.
func (s *Screen) TotalRows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scrollback.Appended() + s.rows
}

// EvictedRows is how many rows have been dropped from scrollback.
func (s *Screen) EvictedRows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scrollback.Evicted()
}

// LineAt returns a copy of the row at an absolute offset, whether it
// lives in scrollback or the grid. ok is false for evicted or
// not-yet-written offsets.
func (s *Screen) LineAt(abs int) (Line, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lineAtLocked(abs)
}

func (s *Screen) lineAtLocked(abs int) (Line, bool) {
	appended := s.scrollback.Appended()
	if abs < appended {
		line, ok := s.scrollback.Line(abs)
		if !ok {
			return nil, false
		}
		return line.Clone(), true
	}
	gridRow := abs - appended
	if gridRow >= s.rows {
		return nil, false
	}
	return s.grid[gridRow].Clone(), true
}

// TextRange returns the text of rows [from, to) by absolute offset,
// skipping rows no longer retained.
func (s *Screen) TextRange(from, to int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for abs := from; abs < to; abs++ {
		if line, ok := s.lineAtLocked(abs); ok {
			out = append(out, line.Text())
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
