package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// cliName names the state directory and database file.
const cliName = "hcm"

// ErrNotFound is wrapped by every lookup and delete that matches no row.
var ErrNotFound = errors.New("not found")

// User is a resident, committee member, or administrator.
type User struct {
	ID          string
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Building is the tenancy boundary for committee membership.
type Building struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
}

// Apartment belongs to exactly one building.
type Apartment struct {
	ID         string
	BuildingID string
	Number     string
	CreatedAt  time.Time
}

// Payment is attributed to a building through its apartment.
type Payment struct {
	ID          string
	ApartmentID string
	AmountCents int64
	Status      string // pending, paid
	DueAt       *time.Time
	CreatedAt   time.Time
}

// MaintenanceRequest is filed by a resident against a building.
type MaintenanceRequest struct {
	ID          string
	BuildingID  string
	RequesterID string
	Title       string
	Status      string // open, in_progress, closed
	CreatedAt   time.Time
}

// Announcement is posted by one author to a building.
type Announcement struct {
	ID         string
	BuildingID string
	AuthorID   string
	Title      string
	Body       string
	CreatedAt  time.Time
}

// Document is a file uploaded by one user.
type Document struct {
	ID         string
	BuildingID string
	UploadedBy string
	Name       string
	CreatedAt  time.Time
}

// Store provides SQLite-backed storage for buildings, residents and
// their resources, committee membership, and the authorization audit log.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database path following XDG Base Directory spec.
// Uses $XDG_DATA_HOME/hcm/hcm.db, defaulting to ~/.local/share/hcm/hcm.db.
func DefaultPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, cliName, cliName+".db")
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Per-connection pragmas go in the DSN so every pooled connection gets them.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets the CLI grant membership while a running server keeps reading.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		display_name TEXT DEFAULT '',
		created_at INTEGER DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS buildings (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT DEFAULT '',
		created_at INTEGER DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS apartments (
		id TEXT PRIMARY KEY,
		building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
		number TEXT NOT NULL,
		created_at INTEGER DEFAULT (strftime('%s', 'now')),
		UNIQUE(building_id, number)
	);
	CREATE INDEX IF NOT EXISTS idx_apartments_building ON apartments(building_id);

	CREATE TABLE IF NOT EXISTS building_members (
		building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role TEXT NOT NULL DEFAULT 'member',
		created_at INTEGER DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (building_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_building_members_user ON building_members(user_id);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		apartment_id TEXT NOT NULL REFERENCES apartments(id) ON DELETE CASCADE,
		amount_cents INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		due_at INTEGER,
		created_at INTEGER DEFAULT (strftime('%s', 'now'))
	);
	CREATE INDEX IF NOT EXISTS idx_payments_apartment ON payments(apartment_id);

	CREATE TABLE IF NOT EXISTS maintenance_requests (
		id TEXT PRIMARY KEY,
		building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
		requester_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		title TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		created_at INTEGER DEFAULT (strftime('%s', 'now'))
	);
	CREATE INDEX IF NOT EXISTS idx_maintenance_requests_building ON maintenance_requests(building_id);

	CREATE TABLE IF NOT EXISTS announcements (
		id TEXT PRIMARY KEY,
		building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
		author_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		title TEXT NOT NULL,
		body TEXT DEFAULT '',
		created_at INTEGER DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		building_id TEXT NOT NULL REFERENCES buildings(id) ON DELETE CASCADE,
		uploaded_by TEXT REFERENCES users(id) ON DELETE SET NULL,
		name TEXT NOT NULL,
		created_at INTEGER DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		request_id TEXT DEFAULT '',
		user_id TEXT NOT NULL,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		metadata TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_user ON audit_log(user_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %w: %s", kind, ErrNotFound, id)
}

func unixPtr(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
