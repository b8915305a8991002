package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/factchecker/realitycheck/internal/analysis"
	"github.com/factchecker/realitycheck/internal/card"
	"github.com/factchecker/realitycheck/internal/config"
	"github.com/factchecker/realitycheck/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager(clock *fakeClock, maxNotices int) *Manager {
	provider := analysis.NewMockProvider(config.MockConfig{
		MinDelay:      time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		SyntheticRate: 0.6,
		MinConfidence: 0.7,
		MaxConfidence: 1,
		Seed:          1,
	})
	return NewManager(provider, ManagerOptions{
		TTL:        30 * time.Minute,
		MaxNotices: maxNotices,
		Card:       card.Options{UploadInterval: time.Millisecond},
		Now:        clock.Now,
	})
}

func TestCatalog(t *testing.T) {
	detectors := Catalog()
	if len(detectors) != 4 {
		t.Fatalf("Catalog() has %d detectors, want 4", len(detectors))
	}
	for i, kind := range models.Kinds {
		if detectors[i].Kind != kind {
			t.Errorf("detector %d kind = %s, want %s", i, detectors[i].Kind, kind)
		}
	}

	detectors[0].Title = "changed"
	if d, _ := Lookup(models.KindVideo); d.Title != "Video Deepfake Detector" {
		t.Errorf("Catalog() exposed internal state: %q", d.Title)
	}
	if d, ok := Lookup(models.KindText); !ok || d.AcceptedTypes != "text/plain" {
		t.Errorf("Lookup(text) = %+v, %v", d, ok)
	}
	if _, ok := Lookup("hologram"); ok {
		t.Error("Lookup(hologram) found a detector")
	}
}

func TestManagerCreateGetDelete(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	m := newTestManager(clock, 20)

	s := m.Create()
	if s.ID == "" {
		t.Fatal("session has no ID")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	snaps := s.Snapshots()
	if len(snaps) != 4 {
		t.Fatalf("Snapshots() = %d cards, want 4", len(snaps))
	}
	for _, snap := range snaps {
		if snap.Phase != card.PhaseIdle {
			t.Errorf("%s card phase = %s, want idle", snap.Kind, snap.Phase)
		}
	}

	got, ok := m.Get(s.ID)
	if !ok || got != s {
		t.Fatalf("Get(%s) = %v, %v", s.ID, got, ok)
	}

	c, _ := s.Card(models.KindText)
	if !m.Delete(s.ID) {
		t.Fatal("Delete() = false")
	}
	if m.Delete(s.ID) {
		t.Error("second Delete() = true")
	}
	if _, ok := m.Get(s.ID); ok {
		t.Error("Get() found deleted session")
	}
	if err := c.SetText("after close"); !errors.Is(err, card.ErrClosed) {
		t.Errorf("SetText() on deleted session error = %v, want ErrClosed", err)
	}
}

func TestManagerSweep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	m := newTestManager(clock, 20)

	stale := m.Create()
	clock.Advance(20 * time.Minute)
	fresh := m.Create()
	clock.Advance(15 * time.Minute)

	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, ok := m.Get(stale.ID); ok {
		t.Error("stale session survived sweep")
	}
	if _, ok := m.Get(fresh.ID); !ok {
		t.Error("fresh session was swept")
	}

	// Get touched fresh, so another 29 minutes keeps it alive.
	clock.Advance(29 * time.Minute)
	if n := m.Sweep(); n != 0 {
		t.Errorf("Sweep() after touch = %d, want 0", n)
	}
}

func TestManagerRunClosesSessionsOnShutdown(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(clock, 20)
	s := m.Create()
	c, _ := s.Card(models.KindImage)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after shutdown, want 0", m.Len())
	}
	if err := c.Analyze(); !errors.Is(err, card.ErrClosed) {
		t.Errorf("Analyze() after shutdown error = %v, want ErrClosed", err)
	}
}

func TestSessionNotices(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(clock, 2)
	s := m.Create()

	text, _ := s.Card(models.KindText)
	video, _ := s.Card(models.KindVideo)
	text.Analyze()
	video.Analyze()
	text.SetText("   ")
	text.Analyze()

	notices := s.Notices()
	if len(notices) != 2 {
		t.Fatalf("Notices() = %d, want the last 2", len(notices))
	}
	if notices[0].Kind != models.KindVideo || notices[1].Kind != models.KindText {
		t.Errorf("notices = %+v, want video then text", notices)
	}
	for _, n := range notices {
		if n.Variant != models.NoticeDestructive {
			t.Errorf("notice %+v is not destructive", n)
		}
	}

	if drained := s.DrainNotices(); len(drained) != 2 {
		t.Errorf("DrainNotices() = %d, want 2", len(drained))
	}
	if left := s.Notices(); len(left) != 0 {
		t.Errorf("Notices() after drain = %d, want 0", len(left))
	}
}

func TestSessionAnalyzeText(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	m := newTestManager(clock, 20)
	s := m.Create()

	c, _ := s.Card(models.KindText)
	if err := c.SetText("Scientists discover water is wet"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	if err := c.Analyze(); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.State().Phase != card.PhaseResulted {
		if time.Now().After(deadline) {
			t.Fatalf("phase = %s, want resulted", c.State().Phase)
		}
		time.Sleep(time.Millisecond)
	}

	notices := s.Notices()
	if len(notices) != 1 || notices[0].Title != "Analysis Complete" {
		t.Errorf("notices = %+v, want one Analysis Complete", notices)
	}
}
