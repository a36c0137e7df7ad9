package history

import (
	"strconv"
	"strings"
	"sync"
)

// Record is one shell command's span in the combined scrollback-plus-
// grid row sequence: the prompt line through the last output line.
type Record struct {
	Start    int    // absolute row of the prompt line
	End      int    // absolute row one past the last output line; -1 while open
	Command  string // prompt-line text with the literal marker stripped
	ExitCode *int   // from OSC 133;D, nil when the shell never reported one
}

// Open reports whether the record is still accumulating output.
func (r Record) Open() bool {
	return r.End < 0
}

// TextSource supplies row text by absolute offset so the tracker can
// capture command text without owning display state.
type TextSource interface {
	TextRange(from, to int) []string
}

// Tracker recognizes command boundaries and maintains the ordered,
// non-overlapping record sequence. Records are addressed by a stable
// index that keeps counting as old records are evicted.
type Tracker struct {
	mu sync.RWMutex

	src    TextSource
	marker string // literal prompt marker for shells without OSC 133
	limit  int

	records []Record
	evicted int
}

// NewTracker creates a tracker retaining at most limit records. marker
// is the fallback literal prompt marker; empty disables the fallback.
// A limit of zero or less means unbounded.
func NewTracker(src TextSource, marker string, limit int) *Tracker {
	return &Tracker{src: src, marker: marker, limit: limit}
}

// HandleOSC processes an OSC sequence observed at the given absolute
// cursor row. Only OSC 133 shell-integration markers are meaningful;
// everything else is ignored.
func (t *Tracker) HandleOSC(cmd int, data string, absRow int) {
	if cmd != 133 || data == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	parts := strings.SplitN(data, ";", 2)
	switch parts[0] {
	case "A": // Prompt start: close the previous command, open the next.
		t.openRecord(absRow)
	case "B", "C":
		// Prompt end / command executed. The prompt line now carries
		// the typed command, so capture it while it is still on screen.
		if rec := t.openTail(); rec != nil {
			rec.Command = t.commandText(rec.Start)
		}
	case "D": // Command finished; an exit code may follow.
		if rec := t.openTail(); rec != nil && len(parts) > 1 {
			if code, err := strconv.Atoi(parts[1]); err == nil {
				c := code
				rec.ExitCode = &c
			}
		}
	}
}

// RowCompleted processes a row the cursor has moved past, matching the
// literal prompt marker fallback. text is the row's full text.
func (t *Tracker) RowCompleted(absRow int, text string) {
	if t.marker == "" || !strings.HasPrefix(text, t.marker) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// A marker row that already starts the open record is the same
	// prompt being observed again, not a new one.
	if rec := t.openTail(); rec != nil && rec.Start == absRow {
		return
	}
	t.openRecord(absRow)
}

// Finalize closes a dangling open record at session end.
func (t *Tracker) Finalize(endRow int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeOpen(endRow)
}

// openRecord closes any open record just before absRow and starts a
// new one there.
func (t *Tracker) openRecord(absRow int) {
	t.closeOpen(absRow)
	t.records = append(t.records, Record{Start: absRow, End: -1})
	t.evictOver()
}

func (t *Tracker) closeOpen(endRow int) {
	rec := t.openTail()
	if rec == nil {
		return
	}
	if endRow < rec.Start {
		endRow = rec.Start
	}
	rec.End = endRow
	if rec.Command == "" {
		rec.Command = t.commandText(rec.Start)
	}
}

func (t *Tracker) openTail() *Record {
	if len(t.records) == 0 {
		return nil
	}
	rec := &t.records[len(t.records)-1]
	if !rec.Open() {
		return nil
	}
	return rec
}

func (t *Tracker) commandText(promptRow int) string {
	if t.src == nil {
		return ""
	}
	lines := t.src.TextRange(promptRow, promptRow+1)
	if len(lines) == 0 {
		return ""
	}
	text := lines[0]
	if t.marker != "" {
		text = strings.TrimPrefix(text, t.marker)
	}
	return strings.TrimSpace(text)
}

func (t *Tracker) evictOver() {
	if t.limit <= 0 {
		return
	}
	if over := len(t.records) - t.limit; over > 0 {
		t.evicted += over
		t.records = t.records[over:]
	}
}

// Count returns the index one past the newest record.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.evicted + len(t.records)
}

// RecordAt returns the record with the given stable index.
func (t *Tracker) RecordAt(i int) (Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.recordAtLocked(i)
}

func (t *Tracker) recordAtLocked(i int) (Record, error) {
	if i < t.evicted || i >= t.evicted+len(t.records) {
		return Record{}, ErrNoRecord
	}
	return t.records[i-t.evicted], nil
}

// Previous returns the record before index i, or ErrNoRecord when i is
// already the first retained record.
func (t *Tracker) Previous(i int) (int, Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.recordAtLocked(i - 1)
	if err != nil {
		return 0, Record{}, err
	}
	return i - 1, rec, nil
}

// Next returns the record after index i, or ErrNoRecord at the end.
func (t *Tracker) Next(i int) (int, Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, err := t.recordAtLocked(i + 1)
	if err != nil {
		return 0, Record{}, err
	}
	return i + 1, rec, nil
}

// Latest returns the newest record and its index.
func (t *Tracker) Latest() (int, Record, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := t.evicted + len(t.records) - 1
	rec, err := t.recordAtLocked(i)
	if err != nil {
		return 0, Record{}, err
	}
	return i, rec, nil
}
