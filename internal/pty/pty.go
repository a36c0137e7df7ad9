package pty

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	creack "github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/dshills/shellpad/internal/log"
)

// Options configures the child process.
type Options struct {
	Shell string   // executable; defaults to $SHELL, then /bin/sh
	Args  []string // arguments after the shell name
	Dir   string   // working directory; empty means inherit
	Env   []string // extra environment entries appended to the parent's
	Rows  uint16
	Cols  uint16
}

// Signal is a control signal deliverable to the child's process group.
type Signal int

const (
	SignalInterrupt Signal = iota
	SignalTerminate
	SignalHangup
)

func (s Signal) unix() unix.Signal {
	switch s {
	case SignalTerminate:
		return unix.SIGTERM
	case SignalHangup:
		return unix.SIGHUP
	default:
		return unix.SIGINT
	}
}

// PTY is one child process attached to a pseudo-terminal. Read is
// driven by a single pumping goroutine; Write, Resize, and Signal may
// be called from other goroutines.
type PTY struct {
	file   *os.File
	cmd    *exec.Cmd
	logger *log.Logger

	waitCh   chan struct{}
	exitCode int

	writeMu sync.Mutex
	closed  bool
}

// Open spawns the shell attached to a new pseudo-terminal.
func Open(opts Options, logger *log.Logger) (*PTY, error) {
	if logger == nil {
		logger = log.Null
	}

	shell := opts.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	rows, cols := opts.Rows, opts.Cols
	if rows == 0 {
		rows = 24
	}
	if cols == 0 {
		cols = 80
	}

	cmd := exec.Command(shell, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, opts.Env...)

	file, err := creack.StartWithSize(cmd, &creack.Winsize{Rows: rows, Cols: cols})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawn, shell, err)
	}

	p := &PTY{
		file:   file,
		cmd:    cmd,
		logger: logger.WithComponent("pty"),
		waitCh: make(chan struct{}),
	}

	p.logger.Debug("spawned shell %s pid=%d size=%dx%d", shell, cmd.Process.Pid, cols, rows)

	go func() {
		err := cmd.Wait()
		if err != nil && cmd.ProcessState == nil {
			p.logger.Warn("wait failed: %v", err)
		}
		if cmd.ProcessState != nil {
			p.exitCode = cmd.ProcessState.ExitCode()
		}
		close(p.waitCh)
	}()

	return p, nil
}

// Read reads raw output bytes from the child. It blocks until data
// arrives and fails once the PTY closes or the child exits.
func (p *PTY) Read(buf []byte) (int, error) {
	return p.file.Read(buf)
}

// Write sends input bytes to the child.
func (p *PTY) Write(data []byte) (int, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	n, err := p.file.Write(data)
	if err != nil {
		return n, fmt.Errorf("pty write: %w", err)
	}
	return n, nil
}

// Resize propagates a window-size change to the child.
func (p *PTY) Resize(rows, cols uint16) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := creack.Setsize(p.file, &creack.Winsize{Rows: rows, Cols: cols}); err != nil {
		return fmt.Errorf("pty resize: %w", err)
	}
	return nil
}

// Signal delivers a control signal to the child's process group.
func (p *PTY) Signal(sig Signal) error {
	proc := p.cmd.Process
	if proc == nil {
		return ErrClosed
	}
	// The child leads its own session, so its pid is the group id.
	if err := unix.Kill(-proc.Pid, sig.unix()); err != nil {
		return fmt.Errorf("pty signal: %w", err)
	}
	return nil
}

// Wait blocks until the child exits and returns its exit code.
func (p *PTY) Wait() int {
	<-p.waitCh
	return p.exitCode
}

// Exited reports whether the child has already been reaped.
func (p *PTY) Exited() bool {
	select {
	case <-p.waitCh:
		return true
	default:
		return false
	}
}

// Close releases the PTY and terminates the child: the master side
// closes immediately (unblocking any reader), then the child gets
// SIGTERM and, after the grace period, SIGKILL. ErrTerminateTimeout is
// returned if it survives a further grace period; the file descriptor
// is released in every case.
func (p *PTY) Close(grace time.Duration) error {
	p.writeMu.Lock()
	if p.closed {
		p.writeMu.Unlock()
		return nil
	}
	p.closed = true
	p.writeMu.Unlock()

	if err := p.file.Close(); err != nil {
		p.logger.Warn("close master: %v", err)
	}

	select {
	case <-p.waitCh:
		return nil
	default:
	}

	if err := p.Signal(SignalTerminate); err != nil {
		p.logger.Debug("terminate signal: %v", err)
	}

	select {
	case <-p.waitCh:
		return nil
	case <-time.After(grace):
	}

	p.logger.Warn("child pid=%d ignored SIGTERM, sending SIGKILL", p.cmd.Process.Pid)
	if err := unix.Kill(-p.cmd.Process.Pid, unix.SIGKILL); err != nil {
		p.logger.Debug("kill: %v", err)
	}

	select {
	case <-p.waitCh:
		return nil
	case <-time.After(grace):
		return fmt.Errorf("%w: pid=%d", ErrTerminateTimeout, p.cmd.Process.Pid)
	}
}
