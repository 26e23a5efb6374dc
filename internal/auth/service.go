// ABOUTME: Authentication service: login, session validation, logout, bootstrap
// ABOUTME: Negative auth outcomes are nil results, not errors, so callers can't distinguish causes

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/posdesk/backend/internal/store"
)

// Default credentials created on first run. The admin is expected to change
// the password immediately via reset-password.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
	DefaultAdminName     = "Administrator"
)

// DefaultSessionTTL is the absolute lifetime of a login-issued session.
const DefaultSessionTTL = 24 * time.Hour

// dummyHash is a bcrypt hash compared against when the user row is missing,
// so login timing doesn't reveal whether a username exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// ErrInvalidRole is returned by user-management operations given a role
// outside the two known values.
var ErrInvalidRole = errors.New("invalid role")

// Service implements the authentication and user-management operations on
// top of a Store. All methods are safe for concurrent use; the store
// serializes access to the underlying database.
type Service struct {
	store      store.Store
	logger     *slog.Logger
	sessionTTL time.Duration
	bcryptCost int
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

// WithBcryptCost overrides the bcrypt cost. Tests use bcrypt.MinCost to
// keep hashing fast.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// NewService creates an auth service backed by st.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		logger:     slog.Default().With("component", "auth"),
		sessionTTL: DefaultSessionTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is the positive outcome of Login: the authenticated user
// (without password hash) and the new session token.
type LoginResult struct {
	User  *store.User
	Token string
}

// Login verifies username/password and issues a new session on success.
// A nil result with nil error means authentication failed: unknown
// username, deactivated user, or wrong password — deliberately
// indistinguishable. Prior sessions for the user are left untouched;
// multiple concurrent sessions are allowed.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a bcrypt comparison anyway to keep timing uniform
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, nil
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !user.IsActive {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		s.logger.Debug("login rejected for inactive user", "username", username)
		return nil, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("login rejected for bad password", "username", username)
		return nil, nil
	}

	now := time.Now().UTC()

	// Two independent statements, not one transaction. A crash between them
	// leaves last_login touched with no session, which is acceptable.
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("updating last login: %w", err)
	}

	token, err := generateSecureToken(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	session := &store.Session{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Token:        token,
		ExpiresAt:    now.Add(s.sessionTTL),
		LastActivity: now,
		CreatedAt:    now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	// The returned user reflects the row as read above: LastLogin is the
	// previous login, not the one just recorded.
	s.logger.Info("login successful", "username", username, "user_id", user.ID)
	return &LoginResult{User: user.Sanitized(), Token: token}, nil
}

// ValidateSession resolves a token to its user. Returns nil,nil when the
// token is unknown, the user has been deactivated, or the session has
// expired. Expired rows are deleted on the spot — there is no background
// sweep. A successful check updates last_activity but never extends
// expires_at.
func (s *Service) ValidateSession(ctx context.Context, token string) (*store.User, error) {
	sw, err := s.store.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	if !sw.User.IsActive {
		return nil, nil
	}

	now := time.Now().UTC()
	if !now.Before(sw.ExpiresAt) {
		if err := s.store.DeleteSession(ctx, token); err != nil {
			return nil, fmt.Errorf("deleting expired session: %w", err)
		}
		s.logger.Debug("expired session removed", "session_id", sw.ID, "user_id", sw.UserID)
		return nil, nil
	}

	if err := s.store.TouchSession(ctx, token, now); err != nil {
		return nil, fmt.Errorf("touching session: %w", err)
	}

	return sw.User.Sanitized(), nil
}

// Logout deletes the session for token. Logging out an unknown token is a
// no-op, not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CreateUser hashes the password and creates an active user with no login
// history. Returns store.ErrUsernameExists when the username is taken.
func (s *Service) CreateUser(ctx context.Context, username, password, displayName string, role store.Role) (*store.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := &store.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user.Sanitized(), nil
}

// UpdateUser updates name, role, and active flag of an existing user.
// Returns store.ErrNotFound if the id is unknown.
func (s *Service) UpdateUser(ctx context.Context, id, displayName string, role store.Role, isActive bool) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	return s.store.UpdateUser(ctx, id, displayName, role, isActive)
}

// ResetPassword re-hashes and replaces a user's password.
// Returns store.ErrNotFound if the id is unknown.
func (s *Service) ResetPassword(ctx context.Context, id, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.store.UpdatePassword(ctx, id, string(hash))
}

// ListUsers returns all users, newest first, without password hashes.
func (s *Service) ListUsers(ctx context.Context) ([]*store.User, error) {
	return s.store.ListUsers(ctx)
}

// EnsureDefaultAdmin creates the default administrator account if no user
// named "admin" exists yet. Safe to call on every startup: the second and
// later runs are no-ops, and a concurrent duplicate insert is absorbed via
// the unique username constraint.
func (s *Service) EnsureDefaultAdmin(ctx context.Context) error {
	_, err := s.store.GetUserByUsername(ctx, DefaultAdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking for default admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultAdminPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing default admin password: %w", err)
	}

	now := time.Now().UTC()
	admin := &store.User{
		ID:           uuid.New().String(),
		Username:     DefaultAdminUsername,
		PasswordHash: string(hash),
		DisplayName:  DefaultAdminName,
		Role:         store.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			// Another process won the race; the invariant holds either way
			return nil
		}
		return fmt.Errorf("creating default admin: %w", err)
	}

	s.logger.Info("created default admin user", "username", DefaultAdminUsername)
	return nil
}
