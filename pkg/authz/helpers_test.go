package authz

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// fakeDirectory implements Directory over in-memory maps and counts calls.
type fakeDirectory struct {
	mu          sync.Mutex
	fields      map[string]string // "<projection>/<id>" -> value
	memberships map[[2]string]bool
	projectErr  error
	memberErr   error

	projectCalls    []string
	membershipCalls int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		fields:      make(map[string]string),
		memberships: make(map[[2]string]bool),
	}
}

func (d *fakeDirectory) set(p Projection, id, value string) *fakeDirectory {
	d.fields[p.String()+"/"+id] = value
	return d
}

func (d *fakeDirectory) grant(buildingID, userID string) *fakeDirectory {
	d.memberships[[2]string{buildingID, userID}] = true
	return d
}

func (d *fakeDirectory) Project(_ context.Context, p Projection, id string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.projectCalls = append(d.projectCalls, p.String())
	if d.projectErr != nil {
		return "", d.projectErr
	}
	return d.fields[p.String()+"/"+id], nil
}

func (d *fakeDirectory) HasMembership(_ context.Context, buildingID, userID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.membershipCalls++
	if d.memberErr != nil {
		return false, d.memberErr
	}
	return d.memberships[[2]string{buildingID, userID}], nil
}

func (d *fakeDirectory) totalCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.projectCalls) + d.membershipCalls
}

// recordingAudit captures audit entries.
type recordingAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (r *recordingAudit) Log(_ context.Context, e AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return r.err
}

func (r *recordingAudit) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Projections used by the default policy table, for seeding the fake.
var (
	projApartmentBuilding = Projection{Table: "apartments", Column: "building_id"}
	projPaymentBuilding   = Projection{Table: "payments", Column: "building_id", Through: &Hop{ForeignKey: "apartment_id", Table: "apartments"}}
	projMRBuilding        = Projection{Table: "maintenance_requests", Column: "building_id"}
	projMRRequester       = Projection{Table: "maintenance_requests", Column: "requester_id"}
	projAnnouncementOwner = Projection{Table: "announcements", Column: "author_id"}
	projDocumentOwner     = Projection{Table: "documents", Column: "uploaded_by"}
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAuthorizer(t *testing.T, dir Directory, audit AuditLogger) *Authorizer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Directory = dir
	cfg.Audit = audit
	cfg.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cfg.Now = func() time.Time { return fixedNow }
	a, err := NewAuthorizer(cfg)
	if err != nil {
		t.Fatalf("NewAuthorizer: %v", err)
	}
	return a
}
