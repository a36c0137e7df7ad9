package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/shellpad/internal/ansi"
	"github.com/dshills/shellpad/internal/config"
	"github.com/dshills/shellpad/internal/history"
	"github.com/dshills/shellpad/internal/log"
	"github.com/dshills/shellpad/internal/pty"
	"github.com/dshills/shellpad/internal/router"
	"github.com/dshills/shellpad/internal/screen"
)

// IO is the transport a session pumps. *pty.PTY satisfies it; tests
// substitute a scripted fake.
type IO interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Resize(rows, cols uint16) error
	Signal(sig pty.Signal) error
	Wait() int
	Close(grace time.Duration) error
}

// Options configures a new session.
type Options struct {
	Config config.Config
	Dir    string // working directory for the shell
	Rows   int
	Cols   int
	Logger *log.Logger
}

// Session is one shell tab: a child process and the display, history,
// and routing state built from its output.
type Session struct {
	id     string
	io     IO
	parser *ansi.Parser
	scr    *screen.Screen
	trk    *history.Tracker
	rtr    *router.Router
	logger *log.Logger
	grace  time.Duration

	mu       sync.RWMutex
	cwd      string
	exitCode int
	exited   bool

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New spawns a shell and starts processing its output.
func New(opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = log.Null
	}

	p, err := pty.Open(pty.Options{
		Shell: opts.Config.Shell,
		Args:  opts.Config.Args,
		Dir:   opts.Dir,
		Rows:  uint16(opts.Rows),
		Cols:  uint16(opts.Cols),
	}, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	return start(p, opts), nil
}

// start wires a session around an already-open transport.
func start(io IO, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.Null
	}
	rows, cols := opts.Rows, opts.Cols
	if rows < 1 {
		rows = 24
	}
	if cols < 1 {
		cols = 80
	}

	s := &Session{
		id:     uuid.NewString(),
		io:     io,
		parser: ansi.NewParser(),
		scr:    screen.New(rows, cols, opts.Config.ScrollbackLimit),
		logger: opts.Logger.WithComponent("session"),
		grace:  opts.Config.TermGraceDuration(),
		cwd:    opts.Dir,
		done:   make(chan struct{}),
	}
	s.trk = history.NewTracker(s.scr, opts.Config.PromptMarker, opts.Config.RecordLimit)
	s.rtr = router.New(s, s.interrupt, router.ParseTrimPolicy(opts.Config.TrimPolicy), opts.Logger)

	go s.processLoop()
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the current renderable display state.
func (s *Session) Snapshot() screen.Snapshot {
	return s.scr.Snapshot()
}

// Screen exposes the display model for scrollback reads.
func (s *Session) Screen() *screen.Screen {
	return s.scr
}

// Records exposes the command boundary tracker.
func (s *Session) Records() *history.Tracker {
	return s.trk
}

// Router exposes the input router.
func (s *Session) Router() *router.Router {
	return s.rtr
}

// Write sends raw bytes to the child process.
func (s *Session) Write(p []byte) (int, error) {
	return s.io.Write(p)
}

// Resize changes both the display grid and the child's window size.
func (s *Session) Resize(rows, cols int) error {
	s.scr.Resize(rows, cols)
	if err := s.io.Resize(uint16(rows), uint16(cols)); err != nil {
		return fmt.Errorf("resize session: %w", err)
	}
	return nil
}

// Signal delivers a control signal to the child's process group.
func (s *Session) Signal(sig pty.Signal) error {
	return s.io.Signal(sig)
}

func (s *Session) interrupt() error {
	return s.io.Signal(pty.SignalInterrupt)
}

// Workdir returns the child's working directory as last reported via
// OSC 7, or the directory the session started in.
func (s *Session) Workdir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cwd
}

// ExitStatus returns the child's exit code once it has exited.
func (s *Session) ExitStatus() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exitCode, s.exited
}

// Done is closed when the output stream has been fully consumed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close terminates the child within the configured grace period and
// waits for the processing loop to drain. Resources are released even
// when the child has to be force-killed.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.io.Close(s.grace)
		select {
		case <-s.done:
		case <-time.After(s.grace):
			s.logger.Warn("close: output loop did not drain")
		}
	})
	return s.closeErr
}

// processLoop is the session's single writer: it reads PTY chunks,
// parses them, and applies the operations.
func (s *Session) processLoop() {
	buf := make([]byte, 32*1024)
	for {
		n, err := s.io.Read(buf)
		if n > 0 {
			s.process(buf[:n])
		}
		if err != nil {
			break
		}
	}

	code := s.io.Wait()
	s.mu.Lock()
	s.exitCode = code
	s.exited = true
	s.mu.Unlock()

	s.trk.Finalize(s.scr.CursorAbsoluteRow() + 1)
	s.logger.Debug("child exited code=%d", code)
	close(s.done)
}

// process applies one chunk's operations, intercepting the ones the
// tracker and session state observe. Line feeds split the batch so the
// completed row's text can be captured before it scrolls away.
func (s *Session) process(data []byte) {
	ops := s.parser.Feed(data)

	var pending []ansi.Op
	flush := func() {
		if len(pending) > 0 {
			s.scr.Apply(pending)
			pending = nil
		}
	}

	for _, op := range ops {
		switch o := op.(type) {
		case ansi.OSCEvent:
			flush()
			s.handleOSC(o)
		case ansi.LineFeed:
			flush()
			s.completeRow()
			s.scr.Apply([]ansi.Op{o})
		default:
			pending = append(pending, op)
		}
	}
	flush()
}

// completeRow reports the row the cursor is leaving to the tracker's
// literal-marker fallback.
func (s *Session) completeRow() {
	abs := s.scr.CursorAbsoluteRow()
	lines := s.scr.TextRange(abs, abs+1)
	if len(lines) == 0 {
		return
	}
	s.trk.RowCompleted(abs, lines[0])
}

func (s *Session) handleOSC(o ansi.OSCEvent) {
	switch o.Cmd {
	case 7:
		if dir, ok := parseFileURL(o.Data); ok {
			s.mu.Lock()
			s.cwd = dir
			s.mu.Unlock()
		}
	case 133:
		s.trk.HandleOSC(o.Cmd, o.Data, s.scr.CursorAbsoluteRow())
	}
}

// parseFileURL extracts the path from an OSC 7 "file://host/path"
// report.
func parseFileURL(raw string) (string, bool) {
	rest, ok := strings.CutPrefix(raw, "file://")
	if !ok {
		return "", false
	}
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return "", false
	}
	path := rest[idx:]
	if path == "" {
		return "", false
	}
	return path, true
}
