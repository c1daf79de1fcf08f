// Package api implements the HTTP API for the property management backend.
//
// Every resource route is wrapped by an ownership guard declared at
// registration, so a handler only runs after the caller has been shown to
// own the resource or to sit on its building's committee.
//
// # Endpoints
//
// Residents:
//   - GET /api/v1/users/{id} - Own profile (self-service)
//
// Building data:
//   - GET /api/v1/apartments/{id} - Committee only
//   - GET /api/v1/payments/{id} - Committee only
//   - GET /api/v1/maintenance-requests/{id} - Requester or committee
//   - DELETE /api/v1/maintenance-requests/{id} - Requester or committee
//   - DELETE /api/v1/announcements/{id} - Author only
//   - DELETE /api/v1/documents/{id} - Uploader only
//
// Probes:
//   - GET /health - Liveness
//   - GET /ready - Database reachability
//
// # Identity
//
// The caller id is taken from a header set by the authenticating proxy
// (X-User-ID by default). This service does not verify credentials.
//
// # Error Handling
//
// Authorization failures use {"error": code, "message": text} with 401,
// 400, or 403. Handler errors use {"error": message}.
package api
