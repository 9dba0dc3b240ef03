package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionStore(rdb, ttl), mr
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	created, err := store.Create(context.Background(), Session{
		Subject:     "sub-1",
		Email:       "user@example.com",
		Name:        "Test User",
		AccessToken: "tok-abc",
		TokenExpiry: time.Now().Add(time.Hour).UTC(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", got.Subject)
	assert.Equal(t, "tok-abc", got.AccessToken)
	assert.Equal(t, created.ID, got.ID)
}

func TestSessionStoreUnknownID(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionStoreExpiry(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)

	created, err := store.Create(context.Background(), Session{Subject: "sub-1"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionStoreUpdateAndDelete(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	created, err := store.Create(context.Background(), Session{Subject: "sub-1", AccessToken: "old"})
	require.NoError(t, err)

	created.AccessToken = "new"
	require.NoError(t, store.Update(context.Background(), created))

	got, err := store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)

	require.NoError(t, store.Delete(context.Background(), created.ID))
	_, err = store.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrNoSession)

	// Deleting again is not an error.
	require.NoError(t, store.Delete(context.Background(), created.ID))
}

func TestSessionIDsAreUnique(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	a, err := store.Create(context.Background(), Session{Subject: "sub-1"})
	require.NoError(t, err)
	b, err := store.Create(context.Background(), Session{Subject: "sub-1"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
