package screen

// Scrollback retains rows that scroll off the top of the grid, up to a
// configurable limit. Rows are addressed by absolute offset: the first
// row ever appended is 0, and offsets stay valid until eviction.
type Scrollback struct {
	limit   int
	lines   []Line
	evicted int
}

// NewScrollback creates a scrollback retaining at most limit rows.
// A limit of zero or less disables retention entirely.
func NewScrollback(limit int) *Scrollback {
	return &Scrollback{limit: limit}
}

// Append stores a row, evicting the oldest rows if over the limit.
func (s *Scrollback) Append(line Line) {
	if s.limit <= 0 {
		s.evicted++
		return
	}
	s.lines = append(s.lines, line)
	if over := len(s.lines) - s.limit; over > 0 {
		s.evicted += over
		// Reslicing leaves evicted rows in the backing array until the
		// next growth reallocation, which keeps Append amortized O(1).
		s.lines = s.lines[over:]
	}
}

// Len returns the number of rows currently retained.
func (s *Scrollback) Len() int {
	return len(s.lines)
}

// Evicted returns how many rows have been dropped from the front.
func (s *Scrollback) Evicted() int {
	return s.evicted
}

// Appended returns how many rows have ever been appended. The next
// row to leave the grid will receive this absolute offset.
func (s *Scrollback) Appended() int {
	return s.evicted + len(s.lines)
}

// Line returns the row at the given absolute offset. ok is false when
// the row was evicted or never appended.
func (s *Scrollback) Line(abs int) (Line, bool) {
	if abs < s.evicted || abs >= s.Appended() {
		return nil, false
	}
	return s.lines[abs-s.evicted], true
}

// Clear drops all retained rows. Absolute offsets keep counting.
func (s *Scrollback) Clear() {
	s.evicted += len(s.lines)
	s.lines = s.lines[:0]
}
