// Authorization audit log store methods.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OfekItzhaki/horizon-hcm/pkg/authz"
)

var _ authz.AuditStore = (*Store)(nil)

// AuditRecord is a persisted audit entry with its row ID.
type AuditRecord struct {
	ID int64
	authz.AuditEntry
}

// AuditFilter specifies criteria for querying audit entries.
type AuditFilter struct {
	UserID       string
	ResourceType string
	ResourceID   string
	Since        time.Time
	Limit        int
}

// InsertAuditEntry appends an entry to the audit log. Entries are never
// updated or deleted.
func (s *Store) InsertAuditEntry(ctx context.Context, entry authz.AuditEntry) (int64, error) {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal audit metadata: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (timestamp, request_id, user_id, action, resource_type, resource_id, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.Unix(),
		entry.RequestID,
		entry.UserID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		string(metadata),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// QueryAuditEntries retrieves audit entries matching the filter, newest first.
func (s *Store) QueryAuditEntries(ctx context.Context, filter AuditFilter) ([]*AuditRecord, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ResourceType != "" {
		conditions = append(conditions, "resource_type = ?")
		args = append(args, filter.ResourceType)
	}
	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Since.Unix())
	}

	query := `SELECT id, timestamp, request_id, user_id, action, resource_type, resource_id, metadata
	          FROM audit_log`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var records []*AuditRecord
	for rows.Next() {
		rec, err := scanAuditRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetAuditEntry retrieves a single audit entry by ID.
func (s *Store) GetAuditEntry(ctx context.Context, id int64) (*AuditRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, request_id, user_id, action, resource_type, resource_id, metadata
		 FROM audit_log WHERE id = ?`,
		id,
	)
	rec, err := scanAuditRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("audit entry", fmt.Sprint(id))
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditRecord(row rowScanner) (*AuditRecord, error) {
	var rec AuditRecord
	var timestamp int64
	var metadata string

	err := row.Scan(&rec.ID, &timestamp, &rec.RequestID, &rec.UserID, &rec.Action,
		&rec.ResourceType, &rec.ResourceID, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	rec.Timestamp = time.Unix(timestamp, 0).UTC()
	if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal audit metadata: %w", err)
	}
	return &rec, nil
}
