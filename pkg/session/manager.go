package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/accountkit/accountd/pkg/cookie"
)

// Manager owns cookie policy and the store, and exposes the session
// life-cycle operations handlers need: load, ensure, authenticate, destroy.
// It is constructed once at process start and injected into the request
// pipeline; there are no ambient singletons.
type Manager struct {
	store   Store
	cookies *cookie.Manager
	config  Config
	log     *slog.Logger
}

// New creates a session manager. A cookie manager is required because the
// session token travels as a signed cookie; missing one is programmer error
// and fails fast.
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.log == nil {
		m.log = slog.New(noopHandler{})
	}

	if m.cookies == nil {
		panic("session: cookie manager is required")
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CheckPeriod)
	}

	return m
}

// Load retrieves the session referenced by the request cookie. Expiry is
// enforced by the stores themselves: the memory store evicts dead records on
// read, Redis lets the key lapse. A record the store still serves is alive,
// even when Touch has slid its retention past the originally written
// timestamp.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.cookies.GetSigned(r, m.config.CookieName)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	return m.store.Get(ctx, token)
}

// Authenticate binds a user to the session after a successful login or
// self-signup. The token is rotated, so the pre-login record is destroyed.
// With rememberMe the cookie gains the configured Max-Age; otherwise it
// stays a browser-session cookie.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, sess *Session, userID int64, rememberMe bool) error {
	oldToken := sess.Token

	if err := sess.Bind(userID); err != nil {
		return err
	}

	if rememberMe {
		sess.Extend(m.config.RememberMeMaxAge())
	}

	if oldToken != "" && oldToken != sess.Token {
		if err := m.store.Destroy(ctx, oldToken); err != nil {
			m.log.WarnContext(ctx, "failed to destroy rotated session token", "error", err)
		}
	}

	if err := m.store.Set(ctx, sess, m.config.TTL(sess)); err != nil {
		return err
	}

	m.writeCookie(w, sess)
	sess.modified = false
	return nil
}

// Destroy removes the session record and clears the response cookie. It is
// idempotent and succeeds even when the record is already gone, so racing
// stale repairs and repeated logouts are safe. The cookie is cleared before
// any error is reported: no path leaves the client holding a token that
// points at a destroyed session.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	m.clearCookie(w)

	if sess == nil || sess.Token == "" {
		return nil
	}

	err := m.store.Destroy(ctx, sess.Token)
	sess.Unbind()
	sess.markDestroyed()
	return err
}

// Touch refreshes the server-side expiry of the session on activity.
func (m *Manager) Touch(ctx context.Context, sess *Session) error {
	if sess == nil || sess.Token == "" {
		return nil
	}
	return m.store.Touch(ctx, sess.Token, m.config.TTL(sess))
}

// Store exposes the underlying store, mainly for health checks and tests.
func (m *Manager) Store() Store {
	return m.store
}

// Close releases store resources (the memory store's sweep goroutine).
func (m *Manager) Close() error {
	if closer, ok := m.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// newSession creates an anonymous session carrying the default cookie
// policy. A configured MaxAge is applied here; zero stays unset so the
// cookie remains a browser-session cookie.
func (m *Manager) newSession() (*Session, error) {
	sess, err := NewSession(m.config.TTL(nil))
	if err != nil {
		return nil, err
	}

	if m.config.MaxAge > 0 {
		maxAge := m.config.MaxAge
		sess.MaxAge = &maxAge
	}

	return sess, nil
}

func (m *Manager) writeCookie(w http.ResponseWriter, sess *Session) {
	opts := []cookie.Option{
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(m.config.HTTPOnly),
		cookie.WithSameSite(m.config.SameSite),
	}

	// No Max-Age attribute for browser-session cookies.
	if sess.MaxAge != nil {
		opts = append(opts, cookie.WithMaxAge(int(sess.MaxAge.Seconds())))
	}

	if m.config.Secure {
		opts = append(opts, cookie.WithSecure(true))
	}

	if err := m.cookies.SetSigned(w, m.config.CookieName, sess.Token, opts...); err != nil {
		m.log.Warn("failed to write session cookie", "error", err)
		return
	}
	sess.cookieSent = true
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	m.cookies.Delete(w, m.config.CookieName)
}

// noopHandler discards all logs when no logger is supplied.
type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (noopHandler) Handle(context.Context, slog.Record) error { return nil }
func (n noopHandler) WithAttrs([]slog.Attr) slog.Handler      { return n }
func (n noopHandler) WithGroup(string) slog.Handler           { return n }
