package dashboard

import (
	"sync"
	"time"

	"github.com/factchecker/realitycheck/internal/analysis"
	"github.com/factchecker/realitycheck/internal/card"
	"github.com/factchecker/realitycheck/internal/models"
)

// Session is one visitor's dashboard: a card per detector plus the notices
// those cards raised.
type Session struct {
	ID        string
	CreatedAt time.Time

	cards map[models.InputKind]*card.Controller

	mu         sync.Mutex
	lastSeen   time.Time
	notices    []models.Notice
	maxNotices int
}

func newSession(id string, provider analysis.Provider, opts card.Options, maxNotices int, now time.Time) *Session {
	s := &Session{
		ID:         id,
		CreatedAt:  now,
		cards:      make(map[models.InputKind]*card.Controller, len(catalog)),
		lastSeen:   now,
		maxNotices: maxNotices,
	}
	opts.Notifier = card.NotifierFunc(s.addNotice)
	for _, d := range catalog {
		s.cards[d.Kind] = card.New(d.Kind, provider, opts)
	}
	return s
}

// Card returns the controller for kind.
func (s *Session) Card(kind models.InputKind) (*card.Controller, bool) {
	c, ok := s.cards[kind]
	return c, ok
}

// Snapshots returns every card's state in catalog order.
func (s *Session) Snapshots() []card.Snapshot {
	out := make([]card.Snapshot, 0, len(catalog))
	for _, d := range catalog {
		out = append(out, s.cards[d.Kind].State())
	}
	return out
}

// Notices returns the retained notices, oldest first.
func (s *Session) Notices() []models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notice, len(s.notices))
	copy(out, s.notices)
	return out
}

// DrainNotices returns the retained notices and forgets them.
func (s *Session) DrainNotices() []models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

func (s *Session) addNotice(n models.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	if s.maxNotices > 0 && len(s.notices) > s.maxNotices {
		s.notices = append([]models.Notice(nil), s.notices[len(s.notices)-s.maxNotices:]...)
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// close unmounts every card: pending timers and analyses are cancelled.
func (s *Session) close() {
	for _, c := range s.cards {
		c.Close()
	}
}
