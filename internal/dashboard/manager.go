package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/factchecker/realitycheck/internal/analysis"
	"github.com/factchecker/realitycheck/internal/card"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ManagerOptions configures session handling.
type ManagerOptions struct {
	TTL        time.Duration
	MaxNotices int
	Card       card.Options
	Now        func() time.Time
}

// Manager owns the live dashboard sessions.
type Manager struct {
	provider analysis.Provider
	opts     ManagerOptions

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(provider analysis.Provider, opts ManagerOptions) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		provider: provider,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session with fresh, idle cards.
func (m *Manager) Create() *Session {
	s := newSession(uuid.New().String(), m.provider, m.opts.Card, m.opts.MaxNotices, m.opts.Now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Debug().Str("session", s.ID).Msg("Session created")
	return s
}

// Get returns a live session and marks it as used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch(m.opts.Now())
	}
	return s, ok
}

// Delete closes and forgets a session. It reports whether it existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.close()
		log.Debug().Str("session", id).Msg("Session closed")
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (m *Manager) Sweep() int {
	if m.opts.TTL <= 0 {
		return 0
	}
	cutoff := m.opts.Now().Add(-m.opts.TTL)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		log.Info().Int("expired", len(expired)).Msg("Swept idle sessions")
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done, then closes all sessions.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
