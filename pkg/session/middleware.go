package session

import (
	"context"
	"errors"
	"net/http"
)

// Middleware attaches a session to every request. An incoming valid cookie
// loads the existing record; a missing, invalid, or expired one yields a
// fresh anonymous session without touching the store. A store outage is
// neither of those things: the request fails with 503 so an authenticated
// client is never silently downgraded to anonymous.
//
// After the handler runs the session is written back when it was modified
// (or Resave forces it); an untouched existing session only gets its
// server-side expiry refreshed. Both use a context that survives client
// disconnects so sessions are never silently dropped.
//
// The Set-Cookie header is emitted lazily, right before the first byte of
// the response, and only when a new session actually got persisted. At most
// one cookie header is written per response.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.Load(r.Context(), r)
		isNew := false
		if err != nil {
			if !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired) {
				m.log.ErrorContext(r.Context(), "failed to load session", "error", err)
				respondStoreUnavailable(w)
				return
			}

			sess, err = m.newSession()
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			isNew = true
		}

		ctx := WithSession(r.Context(), sess)

		sw := &sessionWriter{
			ResponseWriter: w,
			beforeWrite: func() {
				if isNew && !sess.cookieSent && !sess.IsDestroyed() &&
					(m.config.SaveUninitialized || sess.IsModified()) {
					m.writeCookie(w, sess)
				}
			},
		}

		next.ServeHTTP(sw, r.WithContext(ctx))
		sw.flushHeader()

		if sess.IsDestroyed() {
			return
		}

		// Writes must survive a client disconnect.
		saveCtx := context.WithoutCancel(r.Context())

		switch {
		case sess.IsModified() || m.config.Resave || (isNew && m.config.SaveUninitialized):
			if err := m.store.Set(saveCtx, sess, m.config.TTL(sess)); err != nil {
				m.log.ErrorContext(saveCtx, "failed to persist session", "error", err)
			}
		case !isNew:
			// Activity on an existing session slides its server-side expiry.
			if err := m.Touch(saveCtx, sess); err != nil && !errors.Is(err, ErrSessionNotFound) {
				m.log.WarnContext(saveCtx, "failed to touch session", "error", err)
			}
		}
	})
}

// respondStoreUnavailable mirrors the API error envelope so clients see the
// same shape for a session store outage as for any other backend failure.
func respondStoreUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"error":{"code":"store_unavailable","message":"temporary failure, please retry"}}` + "\n"))
}

// sessionWriter defers the cookie decision until the response is committed,
// so handlers that mutate the session mid-flight still get their cookie out
// before the headers are flushed.
type sessionWriter struct {
	http.ResponseWriter
	beforeWrite func()
	wroteHeader bool
}

func (w *sessionWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.beforeWrite()
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// flushHeader runs the cookie hook for handlers that never wrote a body.
func (w *sessionWriter) flushHeader() {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.beforeWrite()
	}
}
