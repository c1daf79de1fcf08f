package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/OfekItzhaki/horizon-hcm/pkg/store"
)

// Ping verifies the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %w: %s", kind, store.ErrNotFound, id)
}

// GetUserByID retrieves a user by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	var u store.User
	err := s.db.QueryRow(ctx,
		`SELECT id, email, display_name, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetApartment retrieves an apartment by id.
func (s *Store) GetApartment(ctx context.Context, id string) (*store.Apartment, error) {
	var a store.Apartment
	err := s.db.QueryRow(ctx,
		`SELECT id, building_id, number, created_at FROM apartments WHERE id = $1`, id,
	).Scan(&a.ID, &a.BuildingID, &a.Number, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("apartment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get apartment: %w", err)
	}
	return &a, nil
}

// GetPayment retrieves a payment by id.
func (s *Store) GetPayment(ctx context.Context, id string) (*store.Payment, error) {
	var p store.Payment
	err := s.db.QueryRow(ctx,
		`SELECT id, apartment_id, amount_cents, status, due_at, created_at FROM payments WHERE id = $1`, id,
	).Scan(&p.ID, &p.ApartmentID, &p.AmountCents, &p.Status, &p.DueAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("payment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// GetMaintenanceRequest retrieves a maintenance request by id.
func (s *Store) GetMaintenanceRequest(ctx context.Context, id string) (*store.MaintenanceRequest, error) {
	var m store.MaintenanceRequest
	var requester *string
	err := s.db.QueryRow(ctx,
		`SELECT id, building_id, requester_id, title, status, created_at FROM maintenance_requests WHERE id = $1`, id,
	).Scan(&m.ID, &m.BuildingID, &requester, &m.Title, &m.Status, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("maintenance request", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get maintenance request: %w", err)
	}
	if requester != nil {
		m.RequesterID = *requester
	}
	return &m, nil
}

// DeleteMaintenanceRequest removes a maintenance request.
func (s *Store) DeleteMaintenanceRequest(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM maintenance_requests WHERE id = $1`, "maintenance request", id)
}

// DeleteAnnouncement removes an announcement.
func (s *Store) DeleteAnnouncement(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM announcements WHERE id = $1`, "announcement", id)
}

// DeleteDocument removes a document record.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM documents WHERE id = $1`, "document", id)
}

func (s *Store) deleteByID(ctx context.Context, query, kind, id string) error {
	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(kind, id)
	}
	return nil
}
