package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// testUser returns a user row with sensible defaults.
func testUser(id, username string) *User {
	now := time.Now().UTC().Truncate(time.Second)
	return &User{
		ID:           id,
		Username:     username,
		PasswordHash: "$2a$04$fakehashfortestingonlyfakehashfortestingonly12",
		DisplayName:  "Test User",
		Role:         RoleCashier,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStore_CreateUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := testUser("user-123", "alice")
	err := store.CreateUser(ctx, user)
	require.NoError(t, err)

	// Verify we can retrieve it
	retrieved, err := store.GetUser(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, "alice", retrieved.Username)
	assert.Equal(t, RoleCashier, retrieved.Role)
	assert.True(t, retrieved.IsActive)
	assert.Nil(t, retrieved.LastLogin)
}

func TestStore_CreateUser_DuplicateUsername(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-1", "alice")))

	err := store.CreateUser(ctx, testUser("user-2", "alice"))
	assert.ErrorIs(t, err, ErrUsernameExists)

	// The store is unchanged: still exactly one user
	count, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_GetUser_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetUser(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetUserByUsername(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := testUser("user-123", "alice")
	require.NoError(t, store.CreateUser(ctx, user))

	retrieved, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "user-123", retrieved.ID)
	// The auth path needs the hash
	assert.Equal(t, user.PasswordHash, retrieved.PasswordHash)

	_, err = store.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetUserByUsername_CaseSensitive(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-123", "alice")))

	_, err := store.GetUserByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := testUser("user-123", "alice")
	require.NoError(t, store.CreateUser(ctx, user))

	err := store.UpdateUser(ctx, "user-123", "Alice B", RoleAdmin, false)
	require.NoError(t, err)

	retrieved, err := store.GetUser(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", retrieved.DisplayName)
	assert.Equal(t, RoleAdmin, retrieved.Role)
	assert.False(t, retrieved.IsActive)
	// Password untouched
	assert.Equal(t, user.PasswordHash, retrieved.PasswordHash)
	assert.False(t, retrieved.UpdatedAt.Before(user.UpdatedAt))
}

func TestStore_UpdateUser_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.UpdateUser(ctx, "nonexistent", "Name", RoleCashier, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdatePassword(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-123", "alice")))

	err := store.UpdatePassword(ctx, "user-123", "new-hash")
	require.NoError(t, err)

	retrieved, err := store.GetUser(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", retrieved.PasswordHash)
}

func TestStore_UpdatePassword_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.UpdatePassword(ctx, "nonexistent", "new-hash")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_TouchLastLogin(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-123", "alice")))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.TouchLastLogin(ctx, "user-123", at))

	retrieved, err := store.GetUser(ctx, "user-123")
	require.NoError(t, err)
	require.NotNil(t, retrieved.LastLogin)
	assert.True(t, retrieved.LastLogin.Equal(at))
	assert.True(t, retrieved.UpdatedAt.Equal(at))
}

func TestStore_ListUsers_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	older := testUser("user-1", "alice")
	older.CreatedAt = time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	older.UpdatedAt = older.CreatedAt
	require.NoError(t, store.CreateUser(ctx, older))

	newer := testUser("user-2", "bob")
	require.NoError(t, store.CreateUser(ctx, newer))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "user-2", users[0].ID)
	assert.Equal(t, "user-1", users[1].ID)

	// Listings never expose hashes
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestParseRole_UnknownFallsBackToCashier(t *testing.T) {
	role, known := ParseRole("MANAGER")
	assert.Equal(t, RoleCashier, role)
	assert.False(t, known)

	role, known = ParseRole("ADMIN")
	assert.Equal(t, RoleAdmin, role)
	assert.True(t, known)

	role, known = ParseRole("CASHIER")
	assert.Equal(t, RoleCashier, role)
	assert.True(t, known)
}
