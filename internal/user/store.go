package user

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no user exists for the given id or email.
	ErrNotFound = errors.New("user.not_found")

	// ErrEmailTaken indicates an account with the email already exists.
	ErrEmailTaken = errors.New("user.email_taken")

	// ErrStoreUnavailable indicates the user persistence is unreachable.
	ErrStoreUnavailable = errors.New("user.store_unavailable")
)

// Store is the persistence contract for user records. The auth resolver
// only ever calls Load; the HTTP handlers use the rest.
type Store interface {
	// Load retrieves a user by id. Returns ErrNotFound when absent — the
	// resolver turns that into a stale-session repair when a session still
	// references the id.
	Load(ctx context.Context, id int64) (*User, error)

	// LoadByEmail retrieves a user by email, used by login.
	LoadByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts a new user. Returns ErrEmailTaken on duplicate email.
	Create(ctx context.Context, email, firstName, lastName, passwordHash string) (*User, error)

	// Delete removes a user by id. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id int64) error
}
