package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSession returns a session row for the given user with a 24h expiry.
func testSession(id, userID, token string) *Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &Session{
		ID:           id,
		UserID:       userID,
		Token:        token,
		ExpiresAt:    now.Add(24 * time.Hour),
		LastActivity: now,
		CreatedAt:    now,
	}
}

func TestStore_CreateSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-1", "alice")))

	session := testSession("sess-1", "user-1", "token-abc")
	require.NoError(t, store.CreateSession(ctx, session))

	sw, err := store.GetSessionByToken(ctx, "token-abc")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sw.ID)
	assert.Equal(t, "user-1", sw.UserID)
	require.NotNil(t, sw.User)
	assert.Equal(t, "alice", sw.User.Username)
	assert.True(t, sw.ExpiresAt.Equal(session.ExpiresAt))
}

func TestStore_CreateSession_DuplicateToken(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-1", "alice")))
	require.NoError(t, store.CreateSession(ctx, testSession("sess-1", "user-1", "token-abc")))

	err := store.CreateSession(ctx, testSession("sess-2", "user-1", "token-abc"))
	assert.Error(t, err, "duplicate token should violate the unique constraint")
}

func TestStore_GetSessionByToken_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetSessionByToken(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetSessionByToken_ReturnsExpiredRows(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-1", "alice")))

	session := testSession("sess-1", "user-1", "token-abc")
	session.ExpiresAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, store.CreateSession(ctx, session))

	// Expiry is the auth service's call, not the store's
	sw, err := store.GetSessionByToken(ctx, "token-abc")
	require.NoError(t, err)
	assert.True(t, sw.ExpiresAt.Before(time.Now().UTC()))
}

func TestStore_TouchSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-1", "alice")))

	session := testSession("sess-1", "user-1", "token-abc")
	require.NoError(t, store.CreateSession(ctx, session))

	later := time.Now().UTC().Add(5 * time.Minute).Truncate(time.Second)
	require.NoError(t, store.TouchSession(ctx, "token-abc", later))

	sw, err := store.GetSessionByToken(ctx, "token-abc")
	require.NoError(t, err)
	assert.True(t, sw.LastActivity.Equal(later))
	// Touch never moves the expiry
	assert.True(t, sw.ExpiresAt.Equal(session.ExpiresAt))
}

func TestStore_DeleteSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-1", "alice")))
	require.NoError(t, store.CreateSession(ctx, testSession("sess-1", "user-1", "token-abc")))

	require.NoError(t, store.DeleteSession(ctx, "token-abc"))

	_, err := store.GetSessionByToken(ctx, "token-abc")
	assert.ErrorIs(t, err, ErrNotFound)

	// Idempotent: deleting again is fine
	require.NoError(t, store.DeleteSession(ctx, "token-abc"))
}

func TestStore_DeleteExpiredSessions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-1", "alice")))

	expired := testSession("sess-1", "user-1", "token-old")
	expired.ExpiresAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, store.CreateSession(ctx, expired))

	live := testSession("sess-2", "user-1", "token-new")
	require.NoError(t, store.CreateSession(ctx, live))

	n, err := store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.GetSessionByToken(ctx, "token-old")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetSessionByToken(ctx, "token-new")
	assert.NoError(t, err)
}

func TestStore_SessionsCascadeDeletedWithUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, testUser("user-1", "alice")))
	require.NoError(t, store.CreateSession(ctx, testSession("sess-1", "user-1", "token-abc")))

	// No delete-user operation exists in the service layer; exercise the
	// FK cascade directly to pin the schema behavior
	_, err := store.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", "user-1")
	require.NoError(t, err)

	_, err = store.GetSessionByToken(ctx, "token-abc")
	assert.ErrorIs(t, err, ErrNotFound)
}
