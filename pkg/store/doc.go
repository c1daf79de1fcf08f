// Package store provides SQLite-based persistence for the property
// management backend.
//
// The store manages:
//
//   - Buildings, apartments, and users
//   - Owned resources: payments, maintenance requests, announcements, documents
//   - Committee membership (building_members)
//   - The append-only authorization audit log
//
// Store implements [authz.Directory] and [authz.AuditStore], so the same
// handle backs both the ownership checks and the denial log.
//
// # Usage
//
//	db, err := store.Open(store.DefaultPath())
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
// # Thread Safety
//
// The store is safe for concurrent use. SQLite WAL mode enables readers and
// writers to operate simultaneously.
package store
