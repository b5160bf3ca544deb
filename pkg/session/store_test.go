package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Unix(1_700_000_000, 0)

func testSession(token string) *auth.Session {
	return &auth.Session{
		Token:     token,
		UserID:    "u1",
		ExpiresAt: auth.ExpiresIn(testNow, time.Hour),
		CreatedAt: testNow.UTC(),
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	current := testNow
	store.now = func() time.Time { return current }

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Put(ctx, testSession("a"), time.Minute))
	require.NoError(t, store.Put(ctx, testSession("b"), 0))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "a", got.Token)

	// Returned sessions are copies
	got.UserID = "changed"
	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "u1", again.UserID)

	current = testNow.Add(2 * time.Minute)
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 2, store.Len())

	assert.Equal(t, 1, store.Purge(current))
	assert.Equal(t, 1, store.Len())

	_, err = store.Get(ctx, "b")
	assert.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "b"))
	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr(), 5)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_RoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	require.NoError(t, store.Put(ctx, testSession("tok"), time.Minute))
	assert.True(t, mr.Exists(DefaultKeyPrefix+"tok"))
	assert.Equal(t, time.Minute, mr.TTL(DefaultKeyPrefix+"tok"))

	got, err := store.Get(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "u1", got.UserID)
	require.NotNil(t, got.ExpiresAt)
	assert.Equal(t, *testSession("tok").ExpiresAt, *got.ExpiresAt)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "tok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_TokenNotStored(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	require.NoError(t, store.Put(ctx, testSession("secret-token"), 0))
	raw, err := mr.Get(DefaultKeyPrefix + "secret-token")
	require.NoError(t, err)
	assert.NotContains(t, raw, "secret-token")
}

func TestRedisStore_CorruptValueIsDeleted(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	require.NoError(t, mr.Set(DefaultKeyPrefix+"bad", "{not json"))
	_, err := store.Get(ctx, "bad")
	assert.Error(t, err)
	assert.False(t, mr.Exists(DefaultKeyPrefix+"bad"))
}

func TestRedisStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, _ := setupRedisStore(t)

	require.NoError(t, store.Put(ctx, testSession("tok"), time.Hour))
	require.NoError(t, store.Delete(ctx, "tok"))
	_, err := store.Get(ctx, "tok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)
	mr.Close()

	_, err := store.Get(ctx, "tok")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestNewRedisClient_Errors(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "invalid://url", 0)
	assert.Error(t, err)

	_, err = NewRedisClient(context.Background(), "redis://127.0.0.1:1", 0)
	assert.Error(t, err)
}

var _ Store = (*RedisStore)(nil)
var _ Store = (*MemoryStore)(nil)
