// ABOUTME: Session persistence methods on SQLiteStore
// ABOUTME: Token lookup joins the owning user; expiry policy lives in the auth service

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateSession inserts a new session row.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (id, user_id, token, expires_at, last_activity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt.UTC().Format(time.RFC3339),
		session.LastActivity.UTC().Format(time.RFC3339),
		session.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("created session", "id", session.ID, "user_id", session.UserID, "expires_at", session.ExpiresAt)
	return nil
}

// GetSessionByToken retrieves a session and its owning user by token.
// Expired rows are returned as-is; the caller decides what expiry means.
// Returns ErrNotFound if no session has that token.
func (s *SQLiteStore) GetSessionByToken(ctx context.Context, token string) (*SessionWithUser, error) {
	query := `
		SELECT s.id, s.user_id, s.token, s.expires_at, s.last_activity, s.created_at,
		       u.id, u.username, u.password_hash, u.display_name, u.role, u.is_active, u.last_login, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ?
	`

	var sw SessionWithUser
	var expiresAtStr, lastActivityStr, createdAtStr string
	var user User
	var roleStr string
	var isActive int
	var lastLogin sql.NullString
	var userCreatedAtStr, userUpdatedAtStr string

	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&sw.ID,
		&sw.UserID,
		&sw.Token,
		&expiresAtStr,
		&lastActivityStr,
		&createdAtStr,
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.DisplayName,
		&roleStr,
		&isActive,
		&lastLogin,
		&userCreatedAtStr,
		&userUpdatedAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session by token: %w", err)
	}

	sw.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}
	sw.LastActivity, err = time.Parse(time.RFC3339, lastActivityStr)
	if err != nil {
		return nil, fmt.Errorf("parsing last_activity: %w", err)
	}
	sw.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	role, known := ParseRole(roleStr)
	if !known {
		s.logger.Warn("unknown role in users table, defaulting to CASHIER", "id", user.ID, "role", roleStr)
	}
	user.Role = role
	user.IsActive = isActive != 0

	if lastLogin.Valid {
		t, err := time.Parse(time.RFC3339, lastLogin.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_login: %w", err)
		}
		user.LastLogin = &t
	}

	user.CreatedAt, err = time.Parse(time.RFC3339, userCreatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing user created_at: %w", err)
	}
	user.UpdatedAt, err = time.Parse(time.RFC3339, userUpdatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing user updated_at: %w", err)
	}

	sw.User = &user
	return &sw, nil
}

// TouchSession updates a session's last_activity timestamp. This is an
// activity marker only; it never moves expires_at.
func (s *SQLiteStore) TouchSession(ctx context.Context, token string, at time.Time) error {
	query := `UPDATE sessions SET last_activity = ? WHERE token = ?`

	_, err := s.db.ExecContext(ctx, query, at.UTC().Format(time.RFC3339), token)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

// DeleteSession removes a session by token. Idempotent: deleting an absent
// token is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all sessions past their expiry and reports
// how many rows were deleted.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("deleted expired sessions", "count", rowsAffected)
	}
	return rowsAffected, nil
}
