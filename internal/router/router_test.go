package router

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dshills/shellpad/internal/key"
)

type captureWriter struct {
	buf    bytes.Buffer
	writes int
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.buf.Write(p)
}

func TestHomeEntersBrowseWithoutBytes(t *testing.T) {
	w := &captureWriter{}
	r := New(w, nil, TrimTrailing, nil)

	d, err := r.Route(Input{Class: ClassNavigate, Event: key.NewSpecialEvent(key.KeyHome, key.ModNone)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.NextMode != ModeBrowse {
		t.Errorf("expected browse mode, got %v", d.NextMode)
	}
	if r.Mode() != ModeBrowse {
		t.Errorf("expected router in browse mode, got %v", r.Mode())
	}
	if w.writes != 0 {
		t.Errorf("expected zero PTY writes, got %d", w.writes)
	}
}

func TestPrintableInBrowseReturnsToTerminalWritingOnce(t *testing.T) {
	w := &captureWriter{}
	r := New(w, nil, TrimTrailing, nil)

	if _, err := r.Route(Input{Class: ClassNavigate, Event: key.NewSpecialEvent(key.KeyHome, key.ModNone)}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	d, err := r.Route(Input{Class: ClassPrintable, Event: key.NewRuneEvent('x', key.ModNone)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.NextMode != ModeTerminal {
		t.Errorf("expected terminal mode, got %v", d.NextMode)
	}
	if w.writes != 1 {
		t.Errorf("expected exactly one PTY write, got %d", w.writes)
	}
	if got := w.buf.String(); got != "x" {
		t.Errorf("expected %q written, got %q", "x", got)
	}
}

func TestInterruptByMode(t *testing.T) {
	interrupts := 0
	w := &captureWriter{}
	r := New(w, func() error { interrupts++; return nil }, TrimTrailing, nil)

	// Terminal mode: interrupt signals the child.
	d, err := r.Route(Input{Class: ClassInterrupt})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.Action != ActionSignalInterrupt {
		t.Errorf("expected ActionSignalInterrupt, got %v", d.Action)
	}
	if interrupts != 1 {
		t.Errorf("expected 1 interrupt, got %d", interrupts)
	}

	// Browse mode: the same chord copies the selection and returns to
	// terminal mode without signaling.
	if _, err := r.Route(Input{Class: ClassNavigate}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	d, err = r.Route(Input{Class: ClassInterrupt})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.Action != ActionCopySelection {
		t.Errorf("expected ActionCopySelection, got %v", d.Action)
	}
	if d.NextMode != ModeTerminal {
		t.Errorf("expected terminal mode after browse interrupt, got %v", d.NextMode)
	}
	if interrupts != 1 {
		t.Errorf("expected no second interrupt, got %d", interrupts)
	}
	if w.writes != 0 {
		t.Errorf("expected no PTY writes, got %d", w.writes)
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name     string
		mode     Mode
		class    Class
		wantMode Mode
		wantAct  Action
	}{
		{"terminal printable stays", ModeTerminal, ClassPrintable, ModeTerminal, ActionWrite},
		{"terminal paste stays", ModeTerminal, ClassPaste, ModeTerminal, ActionWrite},
		{"terminal navigate-to-end stays", ModeTerminal, ClassNavigateToEnd, ModeTerminal, ActionWrite},
		{"terminal navigate enters browse", ModeTerminal, ClassNavigate, ModeBrowse, ActionHostNavigate},
		{"terminal click above enters browse", ModeTerminal, ClassClickAbove, ModeBrowse, ActionHostNavigate},
		{"terminal select-previous enters browse", ModeTerminal, ClassSelectPrevious, ModeBrowse, ActionSelectRecord},
		{"browse printable returns", ModeBrowse, ClassPrintable, ModeTerminal, ActionWrite},
		{"browse paste-insert returns", ModeBrowse, ClassPasteInsert, ModeTerminal, ActionWrite},
		{"browse delete-prompt returns", ModeBrowse, ClassDeletePrompt, ModeTerminal, ActionWrite},
		{"browse replace-prompt returns", ModeBrowse, ClassReplacePrompt, ModeTerminal, ActionWrite},
		{"browse navigate stays", ModeBrowse, ClassNavigate, ModeBrowse, ActionHostNavigate},
		{"browse navigate-to-end returns", ModeBrowse, ClassNavigateToEnd, ModeTerminal, ActionHostNavigate},
		{"browse select-next stays", ModeBrowse, ClassSelectNext, ModeBrowse, ActionSelectRecord},
		{"terminal interrupt signals", ModeTerminal, ClassInterrupt, ModeTerminal, ActionSignalInterrupt},
		{"browse interrupt copies", ModeBrowse, ClassInterrupt, ModeTerminal, ActionCopySelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Transition(tt.mode, Input{Class: tt.class, Event: key.NewRuneEvent('a', key.ModNone)})
			if d.NextMode != tt.wantMode {
				t.Errorf("expected mode %v, got %v", tt.wantMode, d.NextMode)
			}
			if d.Action != tt.wantAct {
				t.Errorf("expected action %v, got %v", tt.wantAct, d.Action)
			}
		})
	}
}

func TestTransitionIsPure(t *testing.T) {
	in := Input{Class: ClassNavigate}
	first := Transition(ModeTerminal, in)
	second := Transition(ModeTerminal, in)
	if first.NextMode != second.NextMode || first.Action != second.Action {
		t.Error("expected identical decisions for identical inputs")
	}
}

func TestSelectDirection(t *testing.T) {
	prev := Transition(ModeBrowse, Input{Class: ClassSelectPrevious})
	if prev.SelectDir != -1 {
		t.Errorf("expected SelectDir -1, got %d", prev.SelectDir)
	}
	next := Transition(ModeBrowse, Input{Class: ClassSelectNext})
	if next.SelectDir != 1 {
		t.Errorf("expected SelectDir 1, got %d", next.SelectDir)
	}
}

func TestReplacePromptKillsLineFirst(t *testing.T) {
	w := &captureWriter{}
	r := New(w, nil, TrimTrailing, nil)

	if _, err := r.Route(Input{Class: ClassNavigate}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := r.Route(Input{Class: ClassReplacePrompt, Text: "make test\n"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := "\x15make test"
	if got := w.buf.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTrimPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy TrimPolicy
		class  Class
		text   string
		want   string
	}{
		{"paste trims trailing", TrimTrailing, ClassPaste, "  ls -l \n", "  ls -l"},
		{"paste trims both", TrimBoth, ClassPaste, "  ls -l \n", "ls -l"},
		{"paste none keeps all", TrimNone, ClassPaste, "  ls -l \n", "  ls -l \n"},
		{"paste-insert bypasses policy", TrimBoth, ClassPasteInsert, "  raw  ", "  raw  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &captureWriter{}
			r := New(w, nil, tt.policy, nil)
			if _, err := r.Route(Input{Class: tt.class, Text: tt.text}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := w.buf.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseTrimPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want TrimPolicy
	}{
		{"none", TrimNone},
		{"both", TrimBoth},
		{"trailing", TrimTrailing},
		{"BOTH", TrimBoth},
		{"unrecognized", TrimTrailing},
		{"", TrimTrailing},
	}

	for _, tt := range tests {
		if got := ParseTrimPolicy(tt.in); got != tt.want {
			t.Errorf("ParseTrimPolicy(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestWriteErrorPropagates(t *testing.T) {
	r := New(failWriter{}, nil, TrimTrailing, nil)

	_, err := r.Route(Input{Class: ClassPrintable, Event: key.NewRuneEvent('x', key.ModNone)})
	if err == nil {
		t.Error("expected write error to propagate")
	}
}

type failWriter struct{}

func (failWriter) Write(p []byte) (int, error) {
	return 0, errors.New("writer closed")
}
