package session

import (
	"context"
	"sync"
	"time"

	"github.com/typespeed/typespeed/internal/logger"
)

// Manager holds active sessions in memory, keyed by ID. Completed sessions
// are removed when their record is persisted; abandoned ones expire after the
// configured TTL.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		log:      logger.Default().WithPrefix("sessions"),
		now:      time.Now,
	}
}

// Put registers a session.
func (m *Manager) Put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	m.log.Debug("session registered: id=%s, active=%d", s.ID, len(m.sessions))
}

// Get returns the session with the given ID and refreshes its expiry clock.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		s.Touch()
	}
	return s, ok
}

// Remove drops a session from the registry.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.log.Debug("session removed: id=%s, active=%d", id, len(m.sessions))
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle longer than the TTL and returns how many.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.log.Info("swept %d expired sessions, %d remain", removed, len(m.sessions))
	}
	return removed
}

// RunSweeper sweeps periodically until the context is cancelled.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
