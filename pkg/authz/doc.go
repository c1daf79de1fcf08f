// Package authz decides whether a caller may act on a specific resource instance.
//
// This package is the single source of truth for resource-ownership decisions.
// No ownership check should be made outside the Authorizer.Authorize method.
//
// # Evaluation Order
//
// Every request runs the same fixed sequence:
//   - fail closed when the caller, resource id, or resource type is missing
//   - allow a caller acting on their own UserProfile without touching storage
//   - resolve the resource's building and allow committee members of it
//   - resolve the resource's owner field and allow the owner
//   - otherwise write an audit entry and deny
//
// Resource types without a row in the policy table are denied through the
// same audited path as a failed ownership check.
//
// # Policy Table
//
// Each ResourceType maps to a Policy holding an optional building resolver
// and an optional owner resolver. Resolvers are built from Projections, each
// of which reads exactly one column, optionally through one foreign key hop:
//
//	ResourcePayment: {
//		Building: Through("payments", "apartment_id", "apartments", "building_id"),
//	},
//
// Adding a resource type means adding a row, never changing Authorize.
//
// # Usage
//
//	cfg := authz.DefaultConfig()
//	cfg.Directory = db
//	cfg.Audit = authz.NewStoreAuditLogger(db)
//	authorizer, err := authz.NewAuthorizer(cfg)
//
//	decision, err := authorizer.Authorize(ctx, authz.Request{
//		Caller:       &authz.Caller{ID: "usr_alice"},
//		ResourceType: authz.ResourceMaintenanceRequest,
//		ResourceID:   "mr_123",
//		Endpoint:     "/api/v1/maintenance-requests/mr_123",
//	})
//	if err != nil {
//		return err // storage failure, not a denial
//	}
//	if !decision.Allowed {
//		return decision.Err()
//	}
//
// # Consistency
//
// Reads are point in time and not transactional with the protected action.
// A membership revoked between the check and the handler is not caught.
//
// # Thread Safety
//
// Authorizer is safe for concurrent use. The policy table is copied at
// construction and never mutated.
package authz
