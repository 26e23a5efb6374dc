// Package store provides persistent storage for posd using SQLite.
//
// # Data Models
//
//   - User: Operator account with bcrypt password hash, role (ADMIN or
//     CASHIER), active flag and login history timestamps
//   - Session: Opaque bearer token referencing a user, with an absolute
//     expiry and a last-activity marker
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Foreign keys matter here: deleting a user cascade-deletes its sessions.
// Timestamps are stored as RFC 3339 UTC text and parsed back on read.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrUsernameExists: Username is already taken
//
// All methods accept context.Context. Store failures surface as wrapped
// errors; they carry no retry semantics.
//
// # Testing
//
// Use NewSQLiteStore with a t.TempDir() path for integration tests with
// real SQLite.
package store
