// User, building, and owned-resource store methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ----- Users and buildings -----

// AddUser creates a user.
func (s *Store) AddUser(ctx context.Context, id, email, displayName string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name) VALUES (?, ?, ?)`,
		id, email, displayName,
	)
	if err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID or email, for operator input.
// Routes acting on an authorized id use GetUserByID.
func (s *Store) GetUser(ctx context.Context, idOrEmail string) (*User, error) {
	return s.getUser(ctx, `WHERE id = ? OR email = ?`, idOrEmail, idOrEmail)
}

// GetUserByID retrieves a user by ID only.
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

func (s *Store) getUser(ctx context.Context, where, key string, args ...any) (*User, error) {
	var u User
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, created_at FROM users `+where,
		append([]any{key}, args...)...,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

// AddBuilding creates a building.
func (s *Store) AddBuilding(ctx context.Context, id, name, address string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO buildings (id, name, address) VALUES (?, ?, ?)`,
		id, name, address,
	)
	if err != nil {
		return fmt.Errorf("failed to add building: %w", err)
	}
	return nil
}

// GetBuilding retrieves a building by ID.
func (s *Store) GetBuilding(ctx context.Context, id string) (*Building, error) {
	var b Building
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, address, created_at FROM buildings WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Address, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("building", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get building: %w", err)
	}
	b.CreatedAt = time.Unix(createdAt, 0)
	return &b, nil
}

// ----- Apartments and payments -----

// AddApartment creates an apartment in a building.
func (s *Store) AddApartment(ctx context.Context, id, buildingID, number string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO apartments (id, building_id, number) VALUES (?, ?, ?)`,
		id, buildingID, number,
	)
	if err != nil {
		return fmt.Errorf("failed to add apartment: %w", err)
	}
	return nil
}

// GetApartment retrieves an apartment by ID.
func (s *Store) GetApartment(ctx context.Context, id string) (*Apartment, error) {
	var a Apartment
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, building_id, number, created_at FROM apartments WHERE id = ?`, id,
	).Scan(&a.ID, &a.BuildingID, &a.Number, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("apartment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get apartment: %w", err)
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	return &a, nil
}

// AddPayment records a payment due for an apartment.
func (s *Store) AddPayment(ctx context.Context, p *Payment) error {
	status := p.Status
	if status == "" {
		status = "pending"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, apartment_id, amount_cents, status, due_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.ApartmentID, p.AmountCents, status, unixPtr(p.DueAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by ID.
func (s *Store) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var p Payment
	var dueAt sql.NullInt64
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, apartment_id, amount_cents, status, due_at, created_at FROM payments WHERE id = ?`, id,
	).Scan(&p.ID, &p.ApartmentID, &p.AmountCents, &p.Status, &dueAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("payment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	p.DueAt = timePtr(dueAt)
	p.CreatedAt = time.Unix(createdAt, 0)
	return &p, nil
}

// ----- Maintenance requests -----

// AddMaintenanceRequest files a request against a building.
func (s *Store) AddMaintenanceRequest(ctx context.Context, id, buildingID, requesterID, title string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO maintenance_requests (id, building_id, requester_id, title) VALUES (?, ?, ?, ?)`,
		id, buildingID, nullable(requesterID), title,
	)
	if err != nil {
		return fmt.Errorf("failed to add maintenance request: %w", err)
	}
	return nil
}

// GetMaintenanceRequest retrieves a maintenance request by ID.
func (s *Store) GetMaintenanceRequest(ctx context.Context, id string) (*MaintenanceRequest, error) {
	var m MaintenanceRequest
	var requester sql.NullString
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, building_id, requester_id, title, status, created_at FROM maintenance_requests WHERE id = ?`, id,
	).Scan(&m.ID, &m.BuildingID, &requester, &m.Title, &m.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("maintenance request", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get maintenance request: %w", err)
	}
	m.RequesterID = requester.String
	m.CreatedAt = time.Unix(createdAt, 0)
	return &m, nil
}

// DeleteMaintenanceRequest removes a maintenance request.
func (s *Store) DeleteMaintenanceRequest(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "maintenance_requests", "maintenance request", id)
}

// ----- Announcements and documents -----

// AddAnnouncement posts an announcement to a building.
func (s *Store) AddAnnouncement(ctx context.Context, a *Announcement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcements (id, building_id, author_id, title, body) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.BuildingID, nullable(a.AuthorID), a.Title, a.Body,
	)
	if err != nil {
		return fmt.Errorf("failed to add announcement: %w", err)
	}
	return nil
}

// DeleteAnnouncement removes an announcement.
func (s *Store) DeleteAnnouncement(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "announcements", "announcement", id)
}

// AddDocument records an uploaded document.
func (s *Store) AddDocument(ctx context.Context, d *Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, building_id, uploaded_by, name) VALUES (?, ?, ?, ?)`,
		d.ID, d.BuildingID, nullable(d.UploadedBy), d.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	return nil
}

// DeleteDocument removes a document record.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "documents", "document", id)
}

// deleteByID deletes one row. table is always a literal from this file.
func (s *Store) deleteByID(ctx context.Context, table, kind, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFound(kind, id)
	}
	return nil
}

// nullable maps "" to SQL NULL for optional foreign keys.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
