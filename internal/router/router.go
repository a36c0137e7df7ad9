package router

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dshills/shellpad/internal/key"
	"github.com/dshills/shellpad/internal/log"
)

// Mode is the routing state. Terminal mode sends input to the child
// process; browse mode hands it to host navigation.
type Mode int

const (
	ModeTerminal Mode = iota
	ModeBrowse
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeTerminal:
		return "terminal"
	case ModeBrowse:
		return "browse"
	default:
		return "unknown"
	}
}

// Class is the host-assigned classification of an input event.
type Class int

const (
	// ClassPrintable is a plain character keystroke.
	ClassPrintable Class = iota
	// ClassPaste is clipboard text pasted at the prompt.
	ClassPaste
	// ClassPasteInsert is clipboard text inserted without leaving the
	// paste content's whitespace to the trim policy.
	ClassPasteInsert
	// ClassNavigate is a navigation key (Home, PageUp, modified arrows)
	// that moves through output rather than the command line.
	ClassNavigate
	// ClassNavigateToEnd jumps back to the live end of output.
	ClassNavigateToEnd
	// ClassSelectPrevious selects the previous command record.
	ClassSelectPrevious
	// ClassSelectNext selects the next command record.
	ClassSelectNext
	// ClassDeletePrompt clears the pending command line.
	ClassDeletePrompt
	// ClassReplacePrompt replaces the pending command line with the
	// carried text.
	ClassReplacePrompt
	// ClassInterrupt is the interrupt chord (Ctrl+C on most hosts).
	ClassInterrupt
	// ClassClickAbove is a pointer click above the active line.
	ClassClickAbove
)

// Input is one classified host event. Event carries the keystroke for
// printable classes; Text carries paste or reconstructed command text.
type Input struct {
	Class Class
	Event key.Event
	Text  string
}

// Action tells the caller what a routing decision requires.
type Action int

const (
	// ActionNone requires nothing.
	ActionNone Action = iota
	// ActionWrite sends Decision.Bytes to the PTY.
	ActionWrite
	// ActionHostNavigate hands the event to host navigation untouched.
	ActionHostNavigate
	// ActionSelectRecord selects the adjacent command record in
	// Decision.SelectDir.
	ActionSelectRecord
	// ActionSignalInterrupt delivers an interrupt to the child.
	ActionSignalInterrupt
	// ActionCopySelection copies the host selection.
	ActionCopySelection
)

// Decision is the outcome of routing one input.
type Decision struct {
	NextMode  Mode
	Action    Action
	Bytes     []byte
	SelectDir int // -1 previous, +1 next, for ActionSelectRecord
}

// killLine clears the shell's pending input line (Ctrl+U).
const killLine = 0x15

// Transition is the routing table: a pure, total function of the
// current mode and the input. Every class has a defined outcome in
// both modes.
func Transition(mode Mode, in Input) Decision {
	switch mode {
	case ModeTerminal:
		return transitionTerminal(in)
	default:
		return transitionBrowse(in)
	}
}

func transitionTerminal(in Input) Decision {
	switch in.Class {
	case ClassPrintable:
		return Decision{NextMode: ModeTerminal, Action: ActionWrite, Bytes: key.Encode(in.Event)}
	case ClassPaste, ClassPasteInsert:
		return Decision{NextMode: ModeTerminal, Action: ActionWrite, Bytes: []byte(in.Text)}
	case ClassNavigateToEnd:
		return Decision{NextMode: ModeTerminal, Action: ActionWrite, Bytes: key.Encode(in.Event)}
	case ClassNavigate, ClassClickAbove:
		return Decision{NextMode: ModeBrowse, Action: ActionHostNavigate}
	case ClassSelectPrevious:
		return Decision{NextMode: ModeBrowse, Action: ActionSelectRecord, SelectDir: -1}
	case ClassSelectNext:
		return Decision{NextMode: ModeBrowse, Action: ActionSelectRecord, SelectDir: 1}
	case ClassDeletePrompt:
		return Decision{NextMode: ModeTerminal, Action: ActionWrite, Bytes: []byte{killLine}}
	case ClassReplacePrompt:
		return Decision{NextMode: ModeTerminal, Action: ActionWrite, Bytes: append([]byte{killLine}, in.Text...)}
	case ClassInterrupt:
		return Decision{NextMode: ModeTerminal, Action: ActionSignalInterrupt}
	default:
		return Decision{NextMode: ModeTerminal, Action: ActionNone}
	}
}

func transitionBrowse(in Input) Decision {
	switch in.Class {
	case ClassPrintable:
		return Decision{NextMode: ModeTerminal, Action: ActionWrite, Bytes: key.Encode(in.Event)}
	case ClassPaste, ClassPasteInsert:
		return Decision{NextMode: ModeTerminal, Action: ActionWrite, Bytes: []byte(in.Text)}
	case ClassDeletePrompt:
		return Decision{NextMode: ModeTerminal, Action: ActionWrite, Bytes: []byte{killLine}}
	case ClassReplacePrompt:
		return Decision{NextMode: ModeTerminal, Action: ActionWrite, Bytes: append([]byte{killLine}, in.Text...)}
	case ClassNavigateToEnd:
		return Decision{NextMode: ModeTerminal, Action: ActionHostNavigate}
	case ClassNavigate, ClassClickAbove:
		return Decision{NextMode: ModeBrowse, Action: ActionHostNavigate}
	case ClassSelectPrevious:
		return Decision{NextMode: ModeBrowse, Action: ActionSelectRecord, SelectDir: -1}
	case ClassSelectNext:
		return Decision{NextMode: ModeBrowse, Action: ActionSelectRecord, SelectDir: 1}
	case ClassInterrupt:
		return Decision{NextMode: ModeTerminal, Action: ActionCopySelection}
	default:
		return Decision{NextMode: ModeBrowse, Action: ActionNone}
	}
}

// TrimPolicy controls whitespace trimming of pasted or reconstructed
// command text before it is written to the PTY.
type TrimPolicy int

const (
	// TrimNone writes text verbatim.
	TrimNone TrimPolicy = iota
	// TrimTrailing removes trailing whitespace.
	TrimTrailing
	// TrimBoth removes leading and trailing whitespace.
	TrimBoth
)

// String returns the policy name.
func (p TrimPolicy) String() string {
	switch p {
	case TrimNone:
		return "none"
	case TrimTrailing:
		return "trailing"
	case TrimBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseTrimPolicy parses a policy name; unrecognized names fall back
// to TrimTrailing.
func ParseTrimPolicy(s string) TrimPolicy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return TrimNone
	case "both":
		return TrimBoth
	default:
		return TrimTrailing
	}
}

// Apply trims text per the policy.
func (p TrimPolicy) Apply(text string) string {
	switch p {
	case TrimTrailing:
		return strings.TrimRight(text, " \t\r\n")
	case TrimBoth:
		return strings.TrimSpace(text)
	default:
		return text
	}
}

// trimApplies reports whether a class's Text passes through the trim
// policy. ClassPasteInsert deliberately bypasses it.
func trimApplies(c Class) bool {
	return c == ClassPaste || c == ClassReplacePrompt
}

// Router applies Transition's decisions: it tracks the current mode,
// writes bytes to the PTY, and triggers interrupts. Record selection
// and host navigation stay with the caller.
type Router struct {
	mu        sync.Mutex
	mode      Mode
	pty       io.Writer
	interrupt func() error
	trim      TrimPolicy
	logger    *log.Logger
}

// New creates a router in terminal mode. interrupt may be nil when the
// session cannot signal.
func New(pty io.Writer, interrupt func() error, trim TrimPolicy, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Null
	}
	return &Router{
		mode:      ModeTerminal,
		pty:       pty,
		interrupt: interrupt,
		trim:      trim,
		logger:    logger,
	}
}

// Mode returns the current routing mode.
func (r *Router) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetTrimPolicy swaps the trim policy, for live config reload.
func (r *Router) SetTrimPolicy(p TrimPolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trim = p
}

// Route classifies nothing and decides everything: it runs the input
// through the transition table, performs the PTY write or interrupt,
// commits the mode change, and returns the decision for the host to
// act on.
func (r *Router) Route(in Input) (Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if trimApplies(in.Class) {
		in.Text = r.trim.Apply(in.Text)
	}

	d := Transition(r.mode, in)

	if r.mode != d.NextMode {
		r.logger.Debug("mode change: %s -> %s", r.mode, d.NextMode)
	}
	r.mode = d.NextMode

	switch d.Action {
	case ActionWrite:
		if len(d.Bytes) > 0 && r.pty != nil {
			if _, err := r.pty.Write(d.Bytes); err != nil {
				return d, fmt.Errorf("route write: %w", err)
			}
		}
	case ActionSignalInterrupt:
		if r.interrupt != nil {
			if err := r.interrupt(); err != nil {
				return d, fmt.Errorf("route interrupt: %w", err)
			}
		}
	}

	return d, nil
}
