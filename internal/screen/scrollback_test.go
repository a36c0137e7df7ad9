package screen

import "testing"

func lineOf(text string) Line {
	l := make(Line, len(text))
	for i, r := range text {
		l[i] = Cell{Rune: r, Width: 1}
	}
	return l
}

func TestScrollbackAbsoluteOffsets(t *testing.T) {
	sb := NewScrollback(10)
	sb.Append(lineOf("first"))
	sb.Append(lineOf("second"))

	if got := sb.Appended(); got != 2 {
		t.Errorf("expected 2 appended, got %d", got)
	}

	line, ok := sb.Line(0)
	if !ok || line.Text() != "first" {
		t.Errorf("expected %q at offset 0, got %v %q", "first", ok, line.Text())
	}
	line, ok = sb.Line(1)
	if !ok || line.Text() != "second" {
		t.Errorf("expected %q at offset 1, got %v %q", "second", ok, line.Text())
	}
	if _, ok := sb.Line(2); ok {
		t.Error("expected offset 2 to be unavailable")
	}
}

func TestScrollbackEvictionKeepsOffsetsStable(t *testing.T) {
	sb := NewScrollback(3)
	for i := 0; i < 5; i++ {
		sb.Append(lineOf(string(rune('a' + i))))
	}

	if got := sb.Evicted(); got != 2 {
		t.Errorf("expected 2 evicted, got %d", got)
	}
	if got := sb.Len(); got != 3 {
		t.Errorf("expected 3 retained, got %d", got)
	}

	// Offsets survive eviction: row "c" is still offset 2.
	line, ok := sb.Line(2)
	if !ok || line.Text() != "c" {
		t.Errorf("expected %q at offset 2, got %v %q", "c", ok, line.Text())
	}
	if _, ok := sb.Line(1); ok {
		t.Error("expected evicted offset 1 to be unavailable")
	}
}

func TestScrollbackZeroLimitRetainsNothing(t *testing.T) {
	sb := NewScrollback(0)
	sb.Append(lineOf("gone"))

	if got := sb.Len(); got != 0 {
		t.Errorf("expected 0 retained, got %d", got)
	}
	if got := sb.Appended(); got != 1 {
		t.Errorf("expected appended counter to advance, got %d", got)
	}
	if _, ok := sb.Line(0); ok {
		t.Error("expected no retrievable rows")
	}
}

func TestScrollbackClear(t *testing.T) {
	sb := NewScrollback(10)
	sb.Append(lineOf("a"))
	sb.Append(lineOf("b"))
	sb.Clear()

	if got := sb.Len(); got != 0 {
		t.Errorf("expected empty scrollback, got %d", got)
	}
	if got := sb.Appended(); got != 2 {
		t.Errorf("expected appended counter preserved, got %d", got)
	}
}
