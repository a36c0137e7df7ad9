package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/shellpad/internal/config"
	"github.com/dshills/shellpad/internal/log"
)

// Manager tracks the open sessions of one editor instance.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg    config.Config
	logger *log.Logger
	closed atomic.Bool
}

// NewManager creates a manager that opens sessions with the given
// configuration defaults.
func NewManager(cfg config.Config, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Null
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		logger:   logger,
	}
}

// SetConfig replaces the defaults used for sessions opened after this
// call. Running sessions are not affected.
func (m *Manager) SetConfig(cfg config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// Open spawns a new shell session in dir with the given window size.
func (m *Manager) Open(dir string, rows, cols int) (*Session, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	m.mu.RLock()
	cfg := m.cfg
	m.mu.RUnlock()

	s, err := New(Options{
		Config: cfg,
		Dir:    dir,
		Rows:   rows,
		Cols:   cols,
		Logger: m.logger,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	m.logger.Info("opened session %s in %s", s.ID(), dir)
	return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns all open sessions.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	return result
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseSession terminates one session and forgets it.
func (m *Manager) CloseSession(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return s.Close()
}

// Shutdown closes every session concurrently and waits up to timeout
// for their output loops to drain.
func (m *Manager) Shutdown(timeout time.Duration) {
	if m.closed.Swap(true) {
		return
	}

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	if len(sessions) == 0 {
		return
	}

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, s := range sessions {
			wg.Add(1)
			go func(s *Session) {
				defer wg.Done()
				if err := s.Close(); err != nil {
					m.logger.Warn("shutdown: close %s: %v", s.ID(), err)
				}
			}(s)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		m.logger.Warn("shutdown: %d sessions did not drain", len(sessions))
	}
}
