package pty

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func readAll(t *testing.T, p *PTY, timeout time.Duration) string {
	t.Helper()

	var out strings.Builder
	done := make(chan struct{})
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := p.Read(buf)
			if n > 0 {
				out.WriteString(string(buf[:n]))
			}
			if err != nil {
				close(done)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
	return out.String()
}

func TestOpenRunsCommand(t *testing.T) {
	requireShell(t)

	p, err := Open(Options{Shell: "/bin/sh", Args: []string{"-c", "echo shellpad-ok"}}, nil)
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}
	defer p.Close(time.Second)

	output := readAll(t, p, 5*time.Second)
	if !strings.Contains(output, "shellpad-ok") {
		t.Errorf("expected output to contain %q, got %q", "shellpad-ok", output)
	}
	if code := p.Wait(); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestOpenMissingExecutable(t *testing.T) {
	_, err := Open(Options{Shell: "/nonexistent/shell-binary"}, nil)
	if err == nil {
		t.Fatal("expected spawn error")
	}
	if !errors.Is(err, ErrSpawn) {
		t.Errorf("expected ErrSpawn, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	requireShell(t)

	p, err := Open(Options{Shell: "/bin/sh", Args: []string{"-c", "exit 3"}}, nil)
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}
	defer p.Close(time.Second)

	readAll(t, p, 5*time.Second)
	if code := p.Wait(); code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
}

func TestWriteReachesChild(t *testing.T) {
	requireShell(t)

	p, err := Open(Options{Shell: "/bin/sh", Args: []string{"-c", "read line; echo got:$line"}}, nil)
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}
	defer p.Close(time.Second)

	if _, err := p.Write([]byte("hello\n")); err != nil {
		t.Fatalf("expected write to succeed, got %v", err)
	}

	output := readAll(t, p, 5*time.Second)
	if !strings.Contains(output, "got:hello") {
		t.Errorf("expected echoed input, got %q", output)
	}
}

func TestWriteAfterCloseFails(t *testing.T) {
	requireShell(t)

	p, err := Open(Options{Shell: "/bin/sh", Args: []string{"-c", "sleep 10"}}, nil)
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}
	if err := p.Close(2 * time.Second); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}

	if _, err := p.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestCloseTerminatesChild(t *testing.T) {
	requireShell(t)

	p, err := Open(Options{Shell: "/bin/sh", Args: []string{"-c", "sleep 60"}}, nil)
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}

	start := time.Now()
	if err := p.Close(2 * time.Second); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("expected bounded close, took %v", elapsed)
	}
	if !p.Exited() {
		t.Error("expected child to be reaped after close")
	}
}

func TestCloseForcesStubbornChild(t *testing.T) {
	requireShell(t)

	// The child ignores SIGTERM; Close must fall back to SIGKILL.
	p, err := Open(Options{Shell: "/bin/sh", Args: []string{"-c", `trap "" TERM; sleep 60`}}, nil)
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}

	// Give the trap a moment to install.
	time.Sleep(200 * time.Millisecond)

	if err := p.Close(500 * time.Millisecond); err != nil {
		t.Fatalf("expected forced termination to succeed, got %v", err)
	}
	if !p.Exited() {
		t.Error("expected child to be reaped after SIGKILL")
	}
}

func TestCloseIdempotent(t *testing.T) {
	requireShell(t)

	p, err := Open(Options{Shell: "/bin/sh", Args: []string{"-c", "true"}}, nil)
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}
	if err := p.Close(time.Second); err != nil {
		t.Fatalf("expected first close to succeed, got %v", err)
	}
	if err := p.Close(time.Second); err != nil {
		t.Errorf("expected second close to be a no-op, got %v", err)
	}
}

func TestResize(t *testing.T) {
	requireShell(t)

	p, err := Open(Options{Shell: "/bin/sh", Args: []string{"-c", "sleep 2"}, Rows: 24, Cols: 80}, nil)
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}
	defer p.Close(time.Second)

	if err := p.Resize(40, 120); err != nil {
		t.Errorf("expected resize to succeed, got %v", err)
	}
}

func TestSignalInterrupt(t *testing.T) {
	requireShell(t)

	p, err := Open(Options{Shell: "/bin/sh", Args: []string{"-c", "sleep 60"}}, nil)
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}
	defer p.Close(time.Second)

	time.Sleep(100 * time.Millisecond)
	if err := p.Signal(SignalInterrupt); err != nil {
		t.Fatalf("expected signal to succeed, got %v", err)
	}

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Error("expected child to exit after interrupt")
	}
}
