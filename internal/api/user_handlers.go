package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/accountkit/accountd/internal/auth"
	"github.com/accountkit/accountd/internal/user"
	"github.com/accountkit/accountd/pkg/logger"
	"github.com/accountkit/accountd/pkg/session"
)

// currentUser answers GET /user: the resolved identity, or 202 for an
// anonymous visitor. A stale session has already been repaired by the
// resolver, so the 401 ships with a cleared cookie and the client's retry
// lands in the 202 branch.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	u, err := h.resolver.LoadLoggedInUser(r.Context(), w, sess)
	if err != nil {
		h.respondResolveError(w, r, err)
		return
	}
	if u == nil {
		respondMessage(w, http.StatusAccepted, "not logged in")
		return
	}

	respondJSON(w, http.StatusOK, u)
}

type createUserRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// createUser answers POST /users. An anonymous caller signs up and gets the
// new account bound to their session; an authenticated caller creates an
// account for someone else and their own session is left alone.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	sess := session.MustFromContext(r.Context())

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "invalid_email", "a valid email is required")
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_password", "a password is required")
		return
	}

	// Resolve before creating so we know whether this is a self-signup.
	actor, err := h.resolver.LoadLoggedInUser(r.Context(), w, sess)
	if err != nil {
		h.respondResolveError(w, r, err)
		return
	}

	hash, err := user.HashPassword(req.Password)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to hash password", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "could not create account")
		return
	}

	created, err := h.users.Create(r.Context(), req.Email, req.FirstName, req.LastName, hash)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			// The acting session is untouched on conflict.
			respondError(w, http.StatusConflict, "email_taken", "an account with this email already exists")
			return
		}
		h.respondStoreError(w, r, err)
		return
	}

	// Bind only on self-signup. Creating an account while logged in never
	// rebinds the acting session.
	if actor == nil {
		if err := h.sessions.Authenticate(r.Context(), w, sess, created.ID, req.RememberMe); err != nil {
			h.log.ErrorContext(r.Context(), "failed to bind session after signup",
				"user_id", created.ID,
				logger.Error(err),
			)
			respondError(w, http.StatusServiceUnavailable, "store_unavailable", "session could not be saved")
			return
		}
	}

	respondJSON(w, http.StatusCreated, created)
}

// getUser answers GET /user/{id} for authenticated callers.
func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	target, err := h.users.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no user with this id")
			return
		}
		h.respondStoreError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, target)
}

// deleteUser answers DELETE /user/{id} for authenticated callers. Deleting
// one's own account leaves the session behind as a dangling binding; the
// resolver repairs it on the next request.
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no user with this id")
			return
		}
		h.respondStoreError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireUser resolves the caller's identity and writes the failure
// response itself when there is none. Anonymous and stale callers both end
// up with 401, but the stale one's cookie has been cleared and the codes
// differ so clients can tell the cases apart.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	sess := session.MustFromContext(r.Context())

	u, err := h.resolver.LoadLoggedInUser(r.Context(), w, sess)
	if err != nil {
		h.respondResolveError(w, r, err)
		return nil, false
	}
	if u == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "login required")
		return nil, false
	}
	return u, true
}

func (h *Handler) respondResolveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, auth.ErrStaleSession) {
		respondError(w, http.StatusUnauthorized, "stale_session", "session is no longer valid, please retry")
		return
	}
	h.respondStoreError(w, r, err)
}

func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.ErrorContext(r.Context(), "store failure", logger.Error(err))
	respondError(w, http.StatusServiceUnavailable, "store_unavailable", "temporary failure, please retry")
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}
