package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/accountkit/accountd/internal/user"
	"github.com/accountkit/accountd/pkg/logger"
	"github.com/accountkit/accountd/pkg/session"
)

// ErrStaleSession is returned when a session is bound to a user id that no
// longer resolves to a user record. By the time the caller sees it, the
// session has been destroyed and the cookie cleared; a retry on the same
// client is plain anonymous. It must never be collapsed into the "no user"
// case.
var ErrStaleSession = errors.New("auth.stale_session")

// Resolver is the single authoritative way protected routes determine who
// is making a request. The session's user binding is advisory only, so the
// resolver re-validates it against the user store on every call.
type Resolver struct {
	users    user.Store
	sessions *session.Manager
	log      *slog.Logger
}

// NewResolver creates a resolver over the given user store and session
// manager.
func NewResolver(users user.Store, sessions *session.Manager, log *slog.Logger) *Resolver {
	return &Resolver{
		users:    users,
		sessions: sessions,
		log:      log,
	}
}

// LoadLoggedInUser resolves the request's session to a user record.
//
//   - Unbound session: (nil, nil). Anonymous is a valid terminal state,
//     never an error.
//   - Bound and the user exists: the resolved record.
//   - Bound but the user is gone: the session is destroyed, the cookie
//     cleared, and ErrStaleSession returned. Racing requests may both hit
//     this path; the store's idempotent destroy makes that safe.
//   - User store outage: the error is passed through so callers can answer
//     with a 5xx instead of silently treating the visitor as anonymous.
func (r *Resolver) LoadLoggedInUser(ctx context.Context, w http.ResponseWriter, sess *session.Session) (*user.User, error) {
	if !sess.IsAuthenticated() {
		return nil, nil
	}

	userID := *sess.UserID

	u, err := r.users.Load(ctx, userID)
	if err == nil {
		return u, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	// The binding points at a user that no longer exists. Repair: drop the
	// record and the cookie so the next request from this client is a clean
	// anonymous one.
	r.log.WarnContext(ctx, "destroying stale session",
		"session_id", sess.ID,
		"user_id", userID,
	)

	if err := r.sessions.Destroy(ctx, w, sess); err != nil {
		r.log.ErrorContext(ctx, "failed to destroy stale session",
			"session_id", sess.ID,
			logger.Error(err),
		)
	}

	return nil, ErrStaleSession
}
