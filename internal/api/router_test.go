package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/factchecker/realitycheck/internal/analysis"
	"github.com/factchecker/realitycheck/internal/card"
	"github.com/factchecker/realitycheck/internal/config"
	"github.com/factchecker/realitycheck/internal/dashboard"
	"github.com/factchecker/realitycheck/internal/database"
	"github.com/factchecker/realitycheck/internal/models"
)

type testServer struct {
	*httptest.Server
	sessions *dashboard.Manager
	store    *database.SQLiteStore
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Analysis.Mock.MinDelay = time.Millisecond
	cfg.Analysis.Mock.MaxDelay = 5 * time.Millisecond
	cfg.Analysis.Mock.Seed = 3
	cfg.Upload.Interval = time.Millisecond
	cfg.Upload.MaxBytes = 1 << 20
	if mutate != nil {
		mutate(cfg)
	}

	store, err := database.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}

	provider, err := analysis.NewProvider(&cfg.Analysis)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	sessions := dashboard.NewManager(provider, dashboard.ManagerOptions{
		TTL:        cfg.Sessions.TTL,
		MaxNotices: cfg.Sessions.MaxNotices,
		Card: card.Options{
			UploadInterval:  cfg.Upload.Interval,
			UploadStep:      cfg.Upload.Step,
			AnalysisTimeout: cfg.Analysis.Timeout,
		},
	})

	ts := &testServer{
		Server:   httptest.NewServer(NewRouter(cfg, sessions, store)),
		sessions: sessions,
		store:    store,
	}
	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/v1/sessions", nil, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d: %s", resp.StatusCode, body)
	}
	var s sessionResponse
	if err := json.Unmarshal(body, &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if len(s.Cards) != 4 {
		t.Fatalf("session has %d cards, want 4", len(s.Cards))
	}
	return s.ID
}

func (ts *testServer) cardState(t *testing.T, id string, kind models.InputKind) card.Snapshot {
	t.Helper()
	resp, body := ts.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get session status = %d", resp.StatusCode)
	}
	var s sessionResponse
	json.Unmarshal(body, &s)
	for _, c := range s.Cards {
		if c.Kind == kind {
			return c
		}
	}
	t.Fatalf("no %s card in session", kind)
	return card.Snapshot{}
}

func (ts *testServer) waitForPhase(t *testing.T, id string, kind models.InputKind, want card.Phase) card.Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		s := ts.cardState(t, id, kind)
		if s.Phase == want {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s card phase = %s, want %s", kind, s.Phase, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthAndDetectors(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := ts.do(t, http.MethodGet, "/api/v1/health", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	var health map[string]interface{}
	json.Unmarshal(body, &health)
	if health["status"] != "healthy" || health["version"] != Version {
		t.Errorf("health = %v", health)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	_, body = ts.do(t, http.MethodGet, "/api/v1/detectors", nil, "")
	var list struct {
		Detectors []models.Detector `json:"detectors"`
	}
	json.Unmarshal(body, &list)
	if len(list.Detectors) != 4 || list.Detectors[3].Title != "Fake News Verifier" {
		t.Errorf("detectors = %+v", list.Detectors)
	}
}

func TestTextCardFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t)

	resp, body := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cards/text/analyze", nil, "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("analyze empty text status = %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "Please enter some text to analyze") {
		t.Errorf("error body = %s", body)
	}

	resp, body = ts.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/cards/text/text",
		strings.NewReader(`{"text":"Local man wins lottery twice"}`), "application/json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set text status = %d: %s", resp.StatusCode, body)
	}
	var cr cardResponse
	json.Unmarshal(body, &cr)
	if cr.Card.Phase != card.PhaseInputReady {
		t.Errorf("phase after set text = %s", cr.Card.Phase)
	}

	resp, body = ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cards/text/analyze", nil, "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("analyze status = %d: %s", resp.StatusCode, body)
	}

	s := ts.waitForPhase(t, id, models.KindText, card.PhaseResulted)
	if s.Analysis.Result == nil || s.Analysis.Result.Validate() != nil {
		t.Fatalf("result = %+v", s.Analysis.Result)
	}

	resp, body = ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/notices?drain=true", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("notices status = %d", resp.StatusCode)
	}
	var notices struct {
		Notices []models.Notice `json:"notices"`
	}
	json.Unmarshal(body, &notices)
	if len(notices.Notices) != 2 || notices.Notices[0].Title != "Error" || notices.Notices[1].Title != "Analysis Complete" {
		t.Errorf("notices = %+v", notices.Notices)
	}

	_, body = ts.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/notices", nil, "")
	if !strings.Contains(string(body), `"notices":[]`) {
		t.Errorf("notices after drain = %s", body)
	}
}

func TestFileCardFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "clip.mp4")
	part.Write(bytes.Repeat([]byte{0x42}, 2048))
	w.Close()

	resp, body := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cards/video/file", &buf, w.FormDataContentType())
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("select file status = %d: %s", resp.StatusCode, body)
	}
	var cr cardResponse
	json.Unmarshal(body, &cr)
	if cr.Card.Input.File == nil || cr.Card.Input.File.Name != "clip.mp4" || cr.Card.Input.File.Size != 2048 {
		t.Errorf("card input = %+v", cr.Card.Input)
	}

	ts.waitForPhase(t, id, models.KindVideo, card.PhaseUploadComplete)

	resp, _ = ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cards/video/analyze", nil, "")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("analyze status = %d", resp.StatusCode)
	}
	s := ts.waitForPhase(t, id, models.KindVideo, card.PhaseResulted)
	if s.Upload.Progress != 100 {
		t.Errorf("progress = %d, want 100", s.Upload.Progress)
	}

	resp, body = ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cards/video/reset", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}
	json.Unmarshal(body, &cr)
	if cr.Card.Phase != card.PhaseIdle || cr.Card.Analysis.Result != nil {
		t.Errorf("card after reset = %+v", cr.Card)
	}
}

func TestRequestErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t)

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		contentType string
		want        int
	}{
		{"unknown session", http.MethodGet, "/api/v1/sessions/nope", "", "", http.StatusNotFound},
		{"unknown kind", http.MethodPost, "/api/v1/sessions/" + id + "/cards/smell/analyze", "", "", http.StatusBadRequest},
		{"text on video card", http.MethodPut, "/api/v1/sessions/" + id + "/cards/video/text", `{"text":"hi"}`, "application/json", http.StatusUnprocessableEntity},
		{"bad json", http.MethodPut, "/api/v1/sessions/" + id + "/cards/text/text", `{`, "application/json", http.StatusBadRequest},
		{"missing file field", http.MethodPost, "/api/v1/sessions/" + id + "/cards/image/file", "", "", http.StatusBadRequest},
		{"analyze before upload", http.MethodPost, "/api/v1/sessions/" + id + "/cards/audio/analyze", "", "", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			resp, data := ts.do(t, tt.method, tt.path, body, tt.contentType)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.want, data)
			}
			var e map[string]string
			if err := json.Unmarshal(data, &e); err != nil || e["error"] == "" {
				t.Errorf("error body = %s", data)
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t)

	resp, _ := ts.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, _ = ts.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d", resp.StatusCode)
	}
	if ts.sessions.Len() != 0 {
		t.Errorf("sessions = %d, want 0", ts.sessions.Len())
	}
}

func TestAuditTrail(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createSession(t)
	ts.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil, "")

	var logs struct {
		Logs []models.AuditLog `json:"logs"`
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, body := ts.do(t, http.MethodGet, "/api/v1/audit", nil, "")
		json.Unmarshal(body, &logs)
		if len(logs.Logs) >= 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if len(logs.Logs) != 2 {
		t.Fatalf("audit logs = %d, want 2", len(logs.Logs))
	}
	var sawSession bool
	for _, l := range logs.Logs {
		if l.SessionID == id && l.Method == http.MethodGet {
			sawSession = true
		}
	}
	if !sawSession {
		t.Errorf("no audit entry tagged with session %s: %+v", id, logs.Logs)
	}
}

func TestAnalyzeRateLimit(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.RateLimits.AnalyzePerMinute = 2 })
	id := ts.createSession(t)

	var last int
	for i := 0; i < 3; i++ {
		resp, _ := ts.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/cards/text/analyze", nil, "")
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third analyze status = %d, want 429", last)
	}
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, body := ts.do(t, http.MethodGet, "/", nil, "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Audio Clone Detector") {
		t.Errorf("index status = %d", resp.StatusCode)
	}

	noUI := newTestServer(t, func(c *config.Config) { c.Server.EnableUI = false })
	resp, _ = noUI.do(t, http.MethodGet, "/", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("index without UI status = %d, want 404", resp.StatusCode)
	}
}
