package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// mockAuditStore implements AuditStore for testing.
type mockAuditStore struct {
	entries []AuditEntry
	mu      sync.Mutex
}

func (m *mockAuditStore) InsertAuditEntry(_ context.Context, entry AuditEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return int64(len(m.entries)), nil
}

func sampleEntry() AuditEntry {
	return AuditEntry{
		Timestamp:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		RequestID:    "req-123",
		UserID:       "usr_alice",
		Action:       AuditActionAuthorizationFailed,
		ResourceType: "Document",
		ResourceID:   "doc_1",
		Metadata:     AuditMetadata{Reason: "not_resource_owner", Endpoint: "/api/v1/documents/doc_1"},
	}
}

func TestStoreAuditLogger_Log(t *testing.T) {
	t.Log("Testing StoreAuditLogger passes entries to the store unchanged")

	store := &mockAuditStore{}
	logger := NewStoreAuditLogger(store)

	if err := logger.Log(context.Background(), sampleEntry()); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(store.entries))
	}
	if store.entries[0] != sampleEntry() {
		t.Errorf("stored %+v, want %+v", store.entries[0], sampleEntry())
	}
}

func TestStoreAuditLogger_StampsMissingTimestamp(t *testing.T) {
	store := &mockAuditStore{}
	logger := NewStoreAuditLogger(store)

	entry := sampleEntry()
	entry.Timestamp = time.Time{}
	before := time.Now()
	if err := logger.Log(context.Background(), entry); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if store.entries[0].Timestamp.Before(before) {
		t.Errorf("expected timestamp >= %v, got %v", before, store.entries[0].Timestamp)
	}
}

func TestSlogAuditLogger_Log(t *testing.T) {
	t.Log("Testing SlogAuditLogger writes one JSON line with the denial fields")

	var buf bytes.Buffer
	logger := NewSlogAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	if err := logger.Log(context.Background(), sampleEntry()); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	checks := map[string]string{
		"level":         "WARN",
		"event":         "authorization.failed",
		"user_id":       "usr_alice",
		"resource_type": "Document",
		"resource_id":   "doc_1",
		"reason":        "not_resource_owner",
		"endpoint":      "/api/v1/documents/doc_1",
		"request_id":    "req-123",
	}
	for k, want := range checks {
		if got, _ := line[k].(string); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

type failingAuditLogger struct{ err error }

func (f failingAuditLogger) Log(context.Context, AuditEntry) error { return f.err }

func TestMultiAuditLogger_WritesAllReturnsFirstError(t *testing.T) {
	t.Log("Testing MultiAuditLogger fans out even when one backend fails")

	first := errors.New("first")
	a := &recordingAudit{}
	b := &recordingAudit{}
	multi := NewMultiAuditLogger(a, failingAuditLogger{err: first}, b, failingAuditLogger{err: errors.New("second")})

	err := multi.Log(context.Background(), sampleEntry())
	if !errors.Is(err, first) {
		t.Errorf("expected first error, got %v", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("expected both recorders to receive the entry, got %d and %d", a.count(), b.count())
	}
}

func TestNopAuditLogger(t *testing.T) {
	if err := (NopAuditLogger{}).Log(context.Background(), sampleEntry()); err != nil {
		t.Errorf("NopAuditLogger returned %v", err)
	}
}
