// Package pgstore implements the authorization directory and audit log on
// PostgreSQL for deployments that run the API against the shared database.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OfekItzhaki/horizon-hcm/pkg/authz"
)

// queryer is the subset of pgxpool.Pool the store uses.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ authz.Directory  = (*Store)(nil)
	_ authz.AuditStore = (*Store)(nil)
)

var (
	pgxPoolNewWithConfig = pgxpool.NewWithConfig
	pingTimeout          = 5 * time.Second
)

// Store reads ownership data from and appends audit entries to PostgreSQL.
type Store struct {
	db   queryer
	pool *pgxpool.Pool
}

// Open connects a pool to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxPoolNewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: pool, pool: pool}, nil
}

// Close releases the pool, if the store owns one.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// projectionQuery renders p as a single-row SELECT keyed on $1.
// p must have passed Validate.
func projectionQuery(p authz.Projection) string {
	if p.Through == nil {
		return fmt.Sprintf(`SELECT %s::text FROM %s WHERE id = $1`, p.Column, p.Table)
	}
	return fmt.Sprintf(
		`SELECT p.%s::text FROM %s r JOIN %s p ON p.id = r.%s WHERE r.id = $1`,
		p.Column, p.Table, p.Through.Table, p.Through.ForeignKey,
	)
}

// Project reads one column for the resource row. A missing row or NULL
// column yields ("", nil).
func (s *Store) Project(ctx context.Context, p authz.Projection, resourceID string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	var v *string
	err := s.db.QueryRow(ctx, projectionQuery(p), resourceID).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

// HasMembership reports whether the user sits on the building's committee.
func (s *Store) HasMembership(ctx context.Context, buildingID, userID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM building_members WHERE building_id = $1 AND user_id = $2)`,
		buildingID, userID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return ok, nil
}

// InsertAuditEntry appends an entry to audit_log and returns its id.
func (s *Store) InsertAuditEntry(ctx context.Context, entry authz.AuditEntry) (int64, error) {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal audit metadata: %w", err)
	}
	var id int64
	err = s.db.QueryRow(ctx,
		`INSERT INTO audit_log (timestamp, request_id, user_id, action, resource_type, resource_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb) RETURNING id`,
		entry.Timestamp.UTC(), entry.RequestID, entry.UserID, entry.Action,
		entry.ResourceType, entry.ResourceID, metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	return id, nil
}

// Migrate creates the schema if it is missing. Deployments that own the
// schema elsewhere leave database.migrate off.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT UNIQUE NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS buildings (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS apartments (
	id TEXT PRIMARY KEY,
	building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
	number TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (building_id, number)
);
CREATE TABLE IF NOT EXISTS building_members (
	building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role TEXT NOT NULL DEFAULT 'member',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (building_id, user_id)
);
CREATE TABLE IF NOT EXISTS payments (
	id TEXT PRIMARY KEY,
	apartment_id TEXT NOT NULL REFERENCES apartments(id) ON DELETE CASCADE,
	amount_cents BIGINT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	due_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS maintenance_requests (
	id TEXT PRIMARY KEY,
	building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
	requester_id TEXT REFERENCES users(id) ON DELETE SET NULL,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS announcements (
	id TEXT PRIMARY KEY,
	building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
	author_id TEXT REFERENCES users(id) ON DELETE SET NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
	uploaded_by TEXT REFERENCES users(id) ON DELETE SET NULL,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS audit_log (
	id BIGSERIAL PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL,
	request_id TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL,
	action TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	metadata JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_log_user ON audit_log(user_id);
`
