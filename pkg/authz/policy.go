package authz

import (
	"context"
	"fmt"
	"regexp"
)

// Directory is the data-access collaborator the engine reads from.
// Implementations live in pkg/store (SQLite) and pkg/pgstore (Postgres).
type Directory interface {
	// Project reads the single column named by p for the resource row with
	// the given id. A missing row or NULL column returns ("", nil).
	Project(ctx context.Context, p Projection, resourceID string) (string, error)

	// HasMembership reports whether a committee row exists for the pair.
	HasMembership(ctx context.Context, buildingID, userID string) (bool, error)
}

// Hop is one foreign key step from a resource row to its parent row.
type Hop struct {
	ForeignKey string // column on the resource table
	Table      string // parent table, joined on its id
}

// Projection names one column reachable from a resource row by id.
// When Through is set, Column is read from Through.Table rather than Table.
type Projection struct {
	Table   string
	Column  string
	Through *Hop
}

var identPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate rejects identifiers that could not have come from a policy table.
// Stores call it before interpolating names into SQL.
func (p Projection) Validate() error {
	names := []string{p.Table, p.Column}
	if p.Through != nil {
		names = append(names, p.Through.ForeignKey, p.Through.Table)
	}
	for _, n := range names {
		if !identPattern.MatchString(n) {
			return fmt.Errorf("invalid projection identifier %q", n)
		}
	}
	return nil
}

// String renders the projection as table.column or table.fk->parent.column.
func (p Projection) String() string {
	if p.Through != nil {
		return fmt.Sprintf("%s.%s->%s.%s", p.Table, p.Through.ForeignKey, p.Through.Table, p.Column)
	}
	return p.Table + "." + p.Column
}

// Resolver returns one field of a resource, or "" when there is no match.
type Resolver func(ctx context.Context, dir Directory, resourceID string) (string, error)

// Column resolves table.column for the resource row.
func Column(table, column string) Resolver {
	return project(Projection{Table: table, Column: column})
}

// Through resolves parent.column by following table.foreignKey to parent.id.
func Through(table, foreignKey, parent, column string) Resolver {
	return project(Projection{
		Table:   table,
		Column:  column,
		Through: &Hop{ForeignKey: foreignKey, Table: parent},
	})
}

func project(p Projection) Resolver {
	return func(ctx context.Context, dir Directory, resourceID string) (string, error) {
		v, err := dir.Project(ctx, p, resourceID)
		if err != nil {
			return "", fmt.Errorf("project %s: %w", p, err)
		}
		return v, nil
	}
}

// Policy is one row of the policy table. Either resolver may be nil.
type Policy struct {
	Building Resolver // owning building; enables the committee override
	Owner    Resolver // user entitled to act on the resource directly
}

// UserProfile has an empty row: only the self-service fast path allows it.
var defaultPolicies = map[ResourceType]Policy{
	ResourceUserProfile: {},
	ResourceApartment: {
		Building: Column("apartments", "building_id"),
	},
	ResourcePayment: {
		Building: Through("payments", "apartment_id", "apartments", "building_id"),
	},
	ResourceMaintenanceRequest: {
		Building: Column("maintenance_requests", "building_id"),
		Owner:    Column("maintenance_requests", "requester_id"),
	},
	ResourceAnnouncement: {
		Owner: Column("announcements", "author_id"),
	},
	ResourceDocument: {
		Owner: Column("documents", "uploaded_by"),
	},
}

// DefaultPolicies returns a copy of the built-in policy table.
func DefaultPolicies() map[ResourceType]Policy {
	out := make(map[ResourceType]Policy, len(defaultPolicies))
	for k, v := range defaultPolicies {
		out[k] = v
	}
	return out
}

// KnownResourceType reports whether t has a row in the built-in table.
func KnownResourceType(t ResourceType) bool {
	_, ok := defaultPolicies[t]
	return ok
}
