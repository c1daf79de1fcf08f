// Directory methods read by the authorization engine.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/OfekItzhaki/horizon-hcm/pkg/authz"
)

var _ authz.Directory = (*Store)(nil)

// projectionQuery renders p as a single-row SELECT keyed on the resource id.
// p must have passed Validate.
func projectionQuery(p authz.Projection) string {
	if p.Through == nil {
		return fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, p.Column, p.Table)
	}
	return fmt.Sprintf(
		`SELECT p.%s FROM %s r INNER JOIN %s p ON p.id = r.%s WHERE r.id = ?`,
		p.Column, p.Table, p.Through.Table, p.Through.ForeignKey,
	)
}

// Project reads one column for the resource row. A missing row or NULL
// column yields ("", nil).
func (s *Store) Project(ctx context.Context, p authz.Projection, resourceID string) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	var v sql.NullString
	err := s.db.QueryRowContext(ctx, projectionQuery(p), resourceID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", p, err)
	}
	return v.String, nil
}

// HasMembership reports whether the user sits on the building's committee.
func (s *Store) HasMembership(ctx context.Context, buildingID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM building_members WHERE building_id = ? AND user_id = ?`,
		buildingID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}
