package session

import (
	"context"
	"time"
)

// Store defines the persistence contract for session records. Both
// implementations (in-process memory, shared Redis) are selected once at
// construction time; nothing switches stores at request time.
type Store interface {
	// Get retrieves a session by token. Returns ErrSessionNotFound when the
	// token is unknown and ErrSessionExpired when the record is past its
	// expiry.
	Get(ctx context.Context, token string) (*Session, error)

	// Set upserts a session record and resets its expiry to ttl.
	Set(ctx context.Context, sess *Session, ttl time.Duration) error

	// Destroy removes a session by token. Idempotent: destroying an absent
	// token is not an error. Two requests racing on the same stale session
	// may both call this.
	Destroy(ctx context.Context, token string) error

	// Touch refreshes the expiry of an existing record without rewriting its
	// payload. Returns ErrSessionNotFound when the token is unknown.
	Touch(ctx context.Context, token string, ttl time.Duration) error
}

// DisposalFunc is invoked by the memory store sweep for every evicted
// record. It exists for observability only and must not cause side effects
// on user data.
type DisposalFunc func(token string)
