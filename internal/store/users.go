// ABOUTME: User persistence methods on SQLiteStore
// ABOUTME: Covers account creation, lookup, updates, and password replacement

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateUser creates a new user. Returns ErrUsernameExists if the username
// is already taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, password_hash, display_name, role, is_active, last_login, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var lastLogin any
	if user.LastLogin != nil {
		lastLogin = user.LastLogin.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.DisplayName,
		string(user.Role),
		boolToInt(user.IsActive),
		lastLogin,
		user.CreatedAt.UTC().Format(time.RFC3339),
		user.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Info("created user", "id", user.ID, "username", user.Username, "role", user.Role)
	return nil
}

// GetUser retrieves a user by ID, including the password hash.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	query := userSelectColumns + ` FROM users WHERE id = ?`
	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username, including the password
// hash. Only the authentication path should use this; everything else gets
// sanitized users. Returns ErrNotFound if no user has that username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := userSelectColumns + ` FROM users WHERE username = ?`
	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user by username: %w", err)
	}
	return user, nil
}

// UpdateUser updates a user's display name, role, and active flag.
// The password is not touched. Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) UpdateUser(ctx context.Context, id, displayName string, role Role, isActive bool) error {
	query := `
		UPDATE users
		SET display_name = ?, role = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		displayName,
		string(role),
		boolToInt(isActive),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("updated user", "id", id, "role", role, "active", isActive)
	return nil
}

// UpdatePassword replaces a user's password hash.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		passwordHash,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("updated user password", "id", id)
	return nil
}

// TouchLastLogin sets a user's last_login and updated_at timestamps.
func (s *SQLiteStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`

	ts := at.UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, query, ts, ts, id)
	if err != nil {
		return fmt.Errorf("touching last login: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListUsers returns all users, newest-created first, without password hashes.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	query := userSelectColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*User
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, user.Sanitized())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

// CountUsers returns the number of users.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

const userSelectColumns = `SELECT id, username, password_hash, display_name, role, is_active, last_login, created_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanUser(row rowScanner) (*User, error) {
	var user User
	var roleStr string
	var isActive int
	var lastLogin sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.DisplayName,
		&roleStr,
		&isActive,
		&lastLogin,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return nil, err
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

	user.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &user, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
