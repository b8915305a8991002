package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/factchecker/realitycheck/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAuditLogs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []*models.AuditLog{
		{ID: "a", SessionID: "s1", Endpoint: "/api/v1/sessions", Method: "POST", ResponseCode: 201, Timestamp: base},
		{ID: "b", SessionID: "s1", Endpoint: "/api/v1/sessions/s1/cards/text/text", Method: "PUT", RequestSize: 42, ResponseCode: 200, DurationMs: 3, Timestamp: base.Add(time.Second)},
		{ID: "c", SessionID: "s1", Endpoint: "/api/v1/sessions/s1/cards/text/analyze", Method: "POST", ResponseCode: 202, Timestamp: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		if err := store.LogRequest(ctx, e); err != nil {
			t.Fatalf("LogRequest(%s) error = %v", e.ID, err)
		}
	}

	logs, err := store.GetAuditLogs(ctx, 2, 0)
	if err != nil {
		t.Fatalf("GetAuditLogs() error = %v", err)
	}
	if len(logs) != 2 || logs[0].ID != "c" || logs[1].ID != "b" {
		t.Fatalf("GetAuditLogs(2, 0) = %v, want c, b", ids(logs))
	}
	if logs[1].RequestSize != 42 || logs[1].Method != "PUT" || logs[1].ResponseCode != 200 {
		t.Errorf("entry b = %+v", logs[1])
	}

	logs, err = store.GetAuditLogs(ctx, 10, 2)
	if err != nil {
		t.Fatalf("GetAuditLogs() error = %v", err)
	}
	if len(logs) != 1 || logs[0].ID != "a" {
		t.Errorf("GetAuditLogs(10, 2) = %v, want a", ids(logs))
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Migrate(); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestNewSQLiteStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore(%s) error = %v", path, err)
	}
	defer store.Close()

	if err := store.LogRequest(context.Background(), &models.AuditLog{
		ID: "x", Endpoint: "/", Method: "GET", ResponseCode: 200, Timestamp: time.Now(),
	}); err != nil {
		t.Errorf("LogRequest() error = %v", err)
	}
}

func ids(logs []*models.AuditLog) []string {
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = l.ID
	}
	return out
}
