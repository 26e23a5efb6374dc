// Package auth implements authentication and user management for posd.
//
// # Session Model
//
// Each session token is in one of three states:
//
//   - valid: row exists, not expired, user active
//   - expired: row exists, past its expires_at
//   - absent: no row, or the user was deleted or deactivated
//
// Transitions are driven only by Login, ValidateSession, and Logout. There
// is no background sweep; expiry is detected and enforced lazily when a
// token is validated. Expiry is absolute from creation — validation updates
// the last-activity marker but never extends the lifetime.
//
// # Failure Semantics
//
// Authentication negatives (unknown username, wrong password, inactive
// user, expired or missing token) are successful calls returning a nil
// result, so callers cannot distinguish the cause. Store failures surface
// as opaque errors.
//
// # Bootstrap
//
// EnsureDefaultAdmin creates the "admin" account on first run and is
// idempotent across restarts and concurrent starts.
package auth
