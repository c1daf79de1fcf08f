package authz

import (
	"context"
	"log/slog"
	"time"
)

// AuditActionAuthorizationFailed is the action recorded on every denial entry.
const AuditActionAuthorizationFailed = "authorization.failed"

// AuditMetadata carries the denial reason and the endpoint that was hit.
type AuditMetadata struct {
	Reason   string `json:"reason"`
	Endpoint string `json:"endpoint"`
}

// AuditEntry is the append-only record written when an ownership check fails.
type AuditEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	RequestID    string        `json:"request_id,omitempty"`
	UserID       string        `json:"user_id"`
	Action       string        `json:"action"`
	ResourceType string        `json:"resource_type"`
	ResourceID   string        `json:"resource_id"`
	Metadata     AuditMetadata `json:"metadata"`
}

// AuditLogger records denial entries.
type AuditLogger interface {
	// Log records a denial. The engine logs and ignores returned errors.
	Log(ctx context.Context, entry AuditEntry) error
}

// AuditStore is the persistence method StoreAuditLogger needs.
// Matches store.Store and pgstore.Store.
type AuditStore interface {
	InsertAuditEntry(ctx context.Context, entry AuditEntry) (int64, error)
}

// StoreAuditLogger writes denial entries to a database.
type StoreAuditLogger struct {
	store AuditStore
}

// NewStoreAuditLogger creates an audit logger that writes to the store.
func NewStoreAuditLogger(store AuditStore) *StoreAuditLogger {
	return &StoreAuditLogger{store: store}
}

// Log writes the entry, stamping the current time if none is set.
func (l *StoreAuditLogger) Log(ctx context.Context, entry AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := l.store.InsertAuditEntry(ctx, entry)
	return err
}

// SlogAuditLogger writes denial entries to structured logging.
// Use this for JSON log output consumed by log aggregation.
type SlogAuditLogger struct {
	logger *slog.Logger
}

// NewSlogAuditLogger creates an audit logger that writes to slog.
func NewSlogAuditLogger(logger *slog.Logger) *SlogAuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditLogger{logger: logger}
}

// Log writes the entry at warn level.
func (l *SlogAuditLogger) Log(ctx context.Context, entry AuditEntry) error {
	attrs := []slog.Attr{
		slog.String("event", entry.Action),
		slog.Time("timestamp", entry.Timestamp),
		slog.String("user_id", entry.UserID),
		slog.String("resource_type", entry.ResourceType),
		slog.String("resource_id", entry.ResourceID),
		slog.String("reason", entry.Metadata.Reason),
		slog.String("endpoint", entry.Metadata.Endpoint),
	}
	if entry.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", entry.RequestID))
	}
	l.logger.LogAttrs(ctx, slog.LevelWarn, "authorization failed", attrs...)
	return nil
}

// MultiAuditLogger writes to multiple audit loggers.
type MultiAuditLogger struct {
	loggers []AuditLogger
}

// NewMultiAuditLogger creates an audit logger that writes to multiple destinations.
func NewMultiAuditLogger(loggers ...AuditLogger) *MultiAuditLogger {
	return &MultiAuditLogger{loggers: loggers}
}

// Log writes to every logger and returns the first error.
func (l *MultiAuditLogger) Log(ctx context.Context, entry AuditEntry) error {
	var firstErr error
	for _, logger := range l.loggers {
		if err := logger.Log(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NopAuditLogger discards all entries.
type NopAuditLogger struct{}

// Log does nothing.
func (NopAuditLogger) Log(context.Context, AuditEntry) error {
	return nil
}
