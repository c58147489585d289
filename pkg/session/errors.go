package session

import "errors"

var (
	// ErrSessionNotFound indicates no session exists for the given token.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSessionExpired indicates the session record is past its expiry.
	ErrSessionExpired = errors.New("session.expired")

	// ErrInvalidSession indicates a malformed or unusable session record.
	ErrInvalidSession = errors.New("session.invalid")

	// ErrStoreUnavailable indicates the underlying store could not be
	// reached. It fails the current request only and is never confused with
	// "not logged in".
	ErrStoreUnavailable = errors.New("session.store_unavailable")

	// ErrTokenGeneration indicates the crypto/rand source failed.
	ErrTokenGeneration = errors.New("session.token_generation_failed")

	// ErrUnknownStoreDriver indicates an unrecognized store driver in config.
	ErrUnknownStoreDriver = errors.New("session.unknown_store_driver")
)
