package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountkit/accountd/pkg/session"
)

func newRedisStore(t *testing.T) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return session.NewRedisStore(client), mr
}

func TestRedisStore_SetGet(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	t.Run("roundtrip", func(t *testing.T) {
		sess := newStoredSession(t)
		sess.Set("role", "tester")
		require.NoError(t, store.Set(ctx, sess, time.Hour))

		got, err := store.Get(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		val, _ := got.GetString("role")
		assert.Equal(t, "tester", val)
	})

	t.Run("bound user survives the trip", func(t *testing.T) {
		sess := newStoredSession(t)
		require.NoError(t, sess.Bind(42))
		require.NoError(t, store.Set(ctx, sess, time.Hour))

		got, err := store.Get(ctx, sess.Token)
		require.NoError(t, err)
		require.NotNil(t, got.UserID)
		assert.Equal(t, int64(42), *got.UserID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.Get(ctx, "unknown")
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})
}

func TestRedisStore_Expiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	sess := newStoredSession(t)
	require.NoError(t, store.Set(ctx, sess, time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound,
		"redis expiry reads as a plain miss")
}

func TestRedisStore_Destroy(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	sess := newStoredSession(t)
	require.NoError(t, store.Set(ctx, sess, time.Hour))

	require.NoError(t, store.Destroy(ctx, sess.Token))
	_, err := store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	// DEL of an absent key is a no-op.
	assert.NoError(t, store.Destroy(ctx, sess.Token))
}

func TestRedisStore_Touch(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	t.Run("refreshes expiry", func(t *testing.T) {
		sess := newStoredSession(t)
		require.NoError(t, store.Set(ctx, sess, time.Minute))
		require.NoError(t, store.Touch(ctx, sess.Token, time.Hour))

		mr.FastForward(30 * time.Minute)

		_, err := store.Get(ctx, sess.Token)
		assert.NoError(t, err)
	})

	t.Run("unknown token", func(t *testing.T) {
		err := store.Touch(ctx, "unknown", time.Hour)
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	sess := newStoredSession(t)
	require.NoError(t, store.Set(ctx, sess, time.Hour))

	mr.Close()

	_, err := store.Get(ctx, sess.Token)
	assert.ErrorIs(t, err, session.ErrStoreUnavailable)

	err = store.Set(ctx, sess, time.Hour)
	assert.ErrorIs(t, err, session.ErrStoreUnavailable)
}
