package authz

import "time"

// ResourceType is the closed set of tags a route can declare.
type ResourceType string

const (
	ResourceUserProfile        ResourceType = "UserProfile"
	ResourceApartment          ResourceType = "Apartment"
	ResourcePayment            ResourceType = "Payment"
	ResourceMaintenanceRequest ResourceType = "MaintenanceRequest"
	ResourceAnnouncement       ResourceType = "Announcement"
	ResourceDocument           ResourceType = "Document"
)

// ReasonType classifies a decision. Middleware uses it (not free-form
// strings) to pick the response status.
type ReasonType string

const (
	ReasonSelfService     ReasonType = "self_service"
	ReasonCommitteeMember ReasonType = "committee_member"
	ReasonResourceOwner   ReasonType = "resource_owner"

	ReasonNotResourceOwner    ReasonType = "not_resource_owner"
	ReasonUnknownResourceType ReasonType = "unknown_resource_type"

	ReasonMissingCaller       ReasonType = "missing_caller"
	ReasonMissingResourceID   ReasonType = "missing_resource_id"
	ReasonMissingResourceType ReasonType = "missing_resource_type"
)

// MissingContext reports whether the reason is one of the fail-closed short
// circuits that deny before any policy is consulted.
func (r ReasonType) MissingContext() bool {
	switch r {
	case ReasonMissingCaller, ReasonMissingResourceID, ReasonMissingResourceType:
		return true
	}
	return false
}

// Caller is the authenticated principal making the request.
type Caller struct {
	ID string
}

// Request contains everything needed for one ownership decision.
type Request struct {
	Caller       *Caller      // nil when the request is unauthenticated
	ResourceType ResourceType // declared on the route
	ResourceID   string       // target resource instance
	Endpoint     string       // request path, recorded on audit entries
	RequestID    string       // correlation id, optional
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed    bool
	Reason     ReasonType
	BuildingID string        // resolved building, if the policy has one
	Audited    bool          // true when an audit entry was attempted
	Duration   time.Duration // how long evaluation took
}

// Err converts a denial into the AuthzError the route layer should surface.
// Returns nil for allowed decisions.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonMissingCaller:
		return ErrMissingCaller()
	case ReasonMissingResourceID:
		return ErrMissingResourceID()
	case ReasonMissingResourceType:
		return ErrMissingResourceType()
	default:
		// Unknown types share the not-owner message on purpose.
		return ErrForbidden()
	}
}
