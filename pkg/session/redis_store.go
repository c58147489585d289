package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "accountd:session:"

// RedisStore persists session records in a shared Redis instance so multiple
// process instances see the same sessions. Each record is one JSON blob under
// a prefixed key; writes are single-key SETs, so concurrent instances racing
// on the same token resolve last-write-wins without cross-key coordination.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Get retrieves a session by token. Redis handles expiry itself, so an
// expired record simply reads as absent.
func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}

	return &sess, nil
}

// Set upserts a session record with the given ttl. A single SET with EX is
// atomic per key, so a half-written record can never be observed.
func (s *RedisStore) Set(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.Token == "" {
		return ErrInvalidSession
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(ErrInvalidSession, err)
	}

	if err := s.client.Set(ctx, s.key(sess.Token), data, ttl).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Destroy removes a session by token. DEL of an absent key is a no-op, which
// gives the idempotency the stale-repair path relies on.
func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// Touch refreshes the expiry of an existing record without rewriting it.
func (s *RedisStore) Touch(ctx context.Context, token string, ttl time.Duration) error {
	ok, err := s.client.Expire(ctx, s.key(token), ttl).Result()
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}
