// ABOUTME: Store interface and data types for posd persistence
// ABOUTME: Defines User, Session structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when trying to create a user with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// Role is the access level of a user, stored as TEXT in the users table.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCashier Role = "CASHIER"
)

// ParseRole maps stored role text to a Role. Unknown text falls back to
// RoleCashier for compatibility with databases written by older builds;
// the second return reports whether the text was recognized so callers
// can log the fallback.
func ParseRole(s string) (Role, bool) {
	switch s {
	case string(RoleAdmin):
		return RoleAdmin, true
	case string(RoleCashier):
		return RoleCashier, true
	default:
		return RoleCashier, false
	}
}

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCashier
}

// User represents an operator account. PasswordHash is only populated by
// lookups used for authentication; user listings leave it empty.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash
	DisplayName  string
	Role         Role
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns a copy of the user with the password hash removed.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}

// Session represents an authenticated session. Token is the opaque bearer
// credential; ExpiresAt is absolute from creation and never extended.
type Session struct {
	ID           string
	UserID       string
	Token        string
	ExpiresAt    time.Time
	LastActivity time.Time
	CreatedAt    time.Time
}

// SessionWithUser is a session row joined with its owning user,
// as returned by token lookups.
type SessionWithUser struct {
	Session
	User *User
}

// Store defines the interface for user and session persistence
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, id, displayName string, role Role, isActive bool) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	ListUsers(ctx context.Context) ([]*User, error)
	CountUsers(ctx context.Context) (int, error)

	// Sessions
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByToken(ctx context.Context, token string) (*SessionWithUser, error)
	TouchSession(ctx context.Context, token string, at time.Time) error
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// Close releases any resources held by the store
	Close() error
}
