// Building committee membership store methods.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Membership is one committee seat. Role is informational; any row grants
// committee access to the building.
type Membership struct {
	BuildingID string
	UserID     string
	Role       string
	CreatedAt  time.Time
}

// MembershipFilter narrows ListMemberships. Empty fields match everything.
type MembershipFilter struct {
	BuildingID string
	UserID     string
}

// AddMembership grants the user a committee seat on the building.
// Granting an existing seat updates its role.
func (s *Store) AddMembership(ctx context.Context, buildingID, userID, role string) error {
	if role == "" {
		role = "member"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO building_members (building_id, user_id, role) VALUES (?, ?, ?)
		 ON CONFLICT(building_id, user_id) DO UPDATE SET role = excluded.role`,
		buildingID, userID, role,
	)
	if err != nil {
		return fmt.Errorf("failed to add membership: %w", err)
	}
	return nil
}

// RemoveMembership revokes the user's seat on the building.
func (s *Store) RemoveMembership(ctx context.Context, buildingID, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM building_members WHERE building_id = ? AND user_id = ?`,
		buildingID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return notFound("membership", buildingID+"/"+userID)
	}
	return nil
}

// ListMemberships returns committee seats ordered by building then user.
func (s *Store) ListMemberships(ctx context.Context, filter MembershipFilter) ([]*Membership, error) {
	var conditions []string
	var args []interface{}

	if filter.BuildingID != "" {
		conditions = append(conditions, "building_id = ?")
		args = append(args, filter.BuildingID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}

	query := `SELECT building_id, user_id, role, created_at FROM building_members`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY building_id, user_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		var m Membership
		var createdAt int64
		if err := rows.Scan(&m.BuildingID, &m.UserID, &m.Role, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.CreatedAt = time.Unix(createdAt, 0)
		members = append(members, &m)
	}
	return members, rows.Err()
}
