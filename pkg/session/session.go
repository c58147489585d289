package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is a server-side record keyed by an opaque token. The token is the
// only thing the client ever sees; the record itself lives in a Store.
type Session struct {
	// ID is a stable identifier that survives token rotation.
	ID uuid.UUID `json:"id"`

	// Token is the cryptographically random value carried in the cookie.
	Token string `json:"token"`

	// UserID binds the session to a user account. Nil means anonymous.
	// The binding is advisory: callers must re-validate it against the user
	// store on every use (see internal/auth.Resolver).
	UserID *int64 `json:"user_id,omitempty"`

	// Data holds arbitrary request-scoped values.
	Data map[string]any `json:"data,omitempty"`

	// MaxAge mirrors the cookie Max-Age attribute. Nil means the cookie is a
	// browser-session cookie and must stay that way; it is never defaulted.
	MaxAge *time.Duration `json:"max_age,omitempty"`

	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// modified tracks whether the record needs a store write.
	modified bool
	// destroyed suppresses any further persistence of this record.
	destroyed bool
	// cookieSent dedupes Set-Cookie headers within one response.
	cookieSent bool
}

// NewSession creates an anonymous session with a fresh token.
// The server-side record expires after ttl regardless of cookie policy.
func NewSession(ttl time.Duration) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Token:     token,
		Data:      make(map[string]any),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsAuthenticated reports whether a user is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil
}

// IsExpired reports whether the record is past its server-side expiry.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

// IsModified reports whether the record has unsaved changes.
func (s *Session) IsModified() bool {
	return s != nil && s.modified
}

// IsDestroyed reports whether the record has been invalidated and must not be
// written back to the store.
func (s *Session) IsDestroyed() bool {
	return s != nil && s.destroyed
}

// Bind attaches a user to the session and rotates the token so that a
// pre-login token can never be replayed as an authenticated one.
func (s *Session) Bind(userID int64) error {
	token, err := generateToken()
	if err != nil {
		return err
	}
	s.Token = token
	s.UserID = &userID
	s.touch()
	return nil
}

// Unbind drops the user binding, returning the session to anonymous.
func (s *Session) Unbind() {
	if s == nil {
		return
	}
	s.UserID = nil
	s.touch()
}

// Extend sets the cookie Max-Age, used for remember-me. The server-side
// expiry is stretched to match.
func (s *Session) Extend(maxAge time.Duration) {
	if s == nil {
		return
	}
	s.MaxAge = &maxAge
	s.ExpiresAt = time.Now().Add(maxAge)
	s.touch()
}

// Get retrieves a value from the session data bag.
func (s *Session) Get(key string) (any, bool) {
	if s == nil || s.Data == nil {
		return nil, false
	}
	val, ok := s.Data[key]
	return val, ok
}

// GetString retrieves a string value from the session data bag.
func (s *Session) GetString(key string) (string, bool) {
	val, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetInt retrieves an int value from the session data bag. JSON round-trips
// store numbers as float64, so that case is converted.
func (s *Session) GetInt(key string) (int, bool) {
	val, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Set stores a value in the session data bag.
func (s *Session) Set(key string, value any) {
	if s == nil {
		return
	}
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
	s.touch()
}

// Delete removes a value from the session data bag.
func (s *Session) Delete(key string) {
	if s == nil || s.Data == nil {
		return
	}
	delete(s.Data, key)
	s.touch()
}

// Clear removes all values from the session data bag.
func (s *Session) Clear() {
	if s == nil {
		return
	}
	s.Data = make(map[string]any)
	s.touch()
}

// markDestroyed flags the record so deferred saves skip it.
func (s *Session) markDestroyed() {
	if s == nil {
		return
	}
	s.destroyed = true
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
	s.modified = true
}

// clone returns a deep copy so the store and callers never share a Data map.
// Runtime flags are dropped: a record coming out of a store has no unsaved
// changes, exactly as after the redis driver's JSON round-trip.
func (s *Session) clone() *Session {
	cp := *s
	cp.modified = false
	cp.destroyed = false
	cp.cookieSent = false
	if s.Data != nil {
		cp.Data = make(map[string]any, len(s.Data))
		for k, v := range s.Data {
			cp.Data[k] = v
		}
	}
	if s.UserID != nil {
		uid := *s.UserID
		cp.UserID = &uid
	}
	if s.MaxAge != nil {
		ma := *s.MaxAge
		cp.MaxAge = &ma
	}
	return &cp
}

// generateToken creates a 32-byte crypto-random token encoded as
// base64url without padding.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
