package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/accountkit/accountd/internal/user"
	"github.com/accountkit/accountd/pkg/logger"
	"github.com/accountkit/accountd/pkg/session"
)

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// login answers POST /login: verifies credentials and binds the user to the
// session. With rememberMe the cookie gains the configured Max-Age;
// otherwise it stays a browser-session cookie.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	u, err := h.users.LoadByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Same answer as a bad password so emails cannot be probed.
			respondError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
			return
		}
		h.respondStoreError(w, r, err)
		return
	}

	if !user.VerifyPassword(u.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
		return
	}

	if err := h.sessions.Authenticate(r.Context(), w, sess, u.ID, req.RememberMe); err != nil {
		h.log.ErrorContext(r.Context(), "failed to bind session after login",
			"user_id", u.ID,
			logger.Error(err),
		)
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", "session could not be saved")
		return
	}

	respondJSON(w, http.StatusOK, u)
}

// logout answers POST /logout. Idempotent: a second call, or a call with a
// stale or absent session, still clears the cookie and returns 204.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	if err := h.sessions.Destroy(r.Context(), w, sess); err != nil {
		// The cookie is already cleared; a store hiccup only means the
		// record lingers until its TTL.
		h.log.WarnContext(r.Context(), "failed to destroy session on logout", logger.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)
}
