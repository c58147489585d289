package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountkit/accountd/internal/api"
	"github.com/accountkit/accountd/internal/auth"
	"github.com/accountkit/accountd/internal/user"
	"github.com/accountkit/accountd/pkg/cookie"
	"github.com/accountkit/accountd/pkg/session"
)

func newTestRouter(t *testing.T) (http.Handler, *user.MemoryStore, *session.Manager) {
	t.Helper()

	cookies, err := cookie.New([]string{strings.Repeat("0123456789abcdef", 2)})
	require.NoError(t, err)

	cfg := session.DefaultConfig()
	cfg.CheckPeriod = 0

	sessions := session.New(
		session.WithConfig(cfg),
		session.WithCookieManager(cookies),
	)
	t.Cleanup(func() { _ = sessions.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := user.NewMemoryStore()
	resolver := auth.NewResolver(users, sessions, log)
	handler := api.NewHandler(users, sessions, resolver, log)

	return handler.Router(context.Background()), users, sessions
}

// client plays the role of a browser: it keeps cookies between requests and
// honors deletions.
type client struct {
	t       *testing.T
	router  http.Handler
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, router http.Handler) *client {
	return &client{t: t, router: router, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(method, target string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	r := httptest.NewRequest(method, target, reader)
	for _, ck := range c.cookies {
		r.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, r)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
		} else {
			c.cookies[ck.Name] = ck
		}
	}

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, w)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected an error envelope, got %v", body)
	code, _ := errObj["code"].(string)
	return code
}

func signup(t *testing.T, c *client, email string) map[string]any {
	t.Helper()
	w := c.do("POST", "/users", map[string]any{
		"email":     email,
		"firstName": "Test",
		"lastName":  "User",
		"password":  "s3cret-passphrase",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return decodeBody(t, w)
}

func TestSignupBindsSession(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)
	c := newClient(t, router)

	created := signup(t, c, "alice@example.com")
	assert.Equal(t, "alice@example.com", created["email"])
	assert.NotContains(t, created, "passwordHash", "the hash never leaves the server")

	w := c.do("GET", "/user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "Test", body["firstName"])
}

func TestSignupValidation(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"missing email", map[string]any{"password": "x"}, "invalid_email"},
		{"malformed email", map[string]any{"email": "not-an-email", "password": "x"}, "invalid_email"},
		{"missing password", map[string]any{"email": "a@b.com"}, "invalid_password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, router)
			w := c.do("POST", "/users", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/users", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSignupDuplicateEmail(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)
	c := newClient(t, router)
	signup(t, c, "alice@example.com")

	w := c.do("POST", "/users", map[string]any{
		"email":    "alice@example.com",
		"password": "another",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email_taken", errorCode(t, w))

	t.Run("acting session untouched by the conflict", func(t *testing.T) {
		w := c.do("GET", "/user", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice@example.com", decodeBody(t, w)["email"])
	})
}

func TestCurrentUserAnonymous(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)
	c := newClient(t, router)

	w := c.do("GET", "/user", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestStaleSessionRepair(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)
	c := newClient(t, router)

	created := signup(t, c, "alice@example.com")
	id := int64(created["id"].(float64))

	// Delete own account; the session keeps pointing at the dead id.
	w := c.do("DELETE", "/user/"+jsonNumber(id), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = c.do("GET", "/user", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "stale_session", errorCode(t, w))
	assert.Empty(t, c.cookies, "the repair must clear the session cookie")

	t.Run("retry is plain anonymous", func(t *testing.T) {
		w := c.do("GET", "/user", nil)
		assert.Equal(t, http.StatusAccepted, w.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	router, users, _ := newTestRouter(t)

	hash, err := user.HashPassword("s3cret-passphrase")
	require.NoError(t, err)
	_, err = users.Create(context.Background(), "alice@example.com", "Alice", "Doe", hash)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		c := newClient(t, router)
		w := c.do("POST", "/login", map[string]any{
			"email":    "alice@example.com",
			"password": "s3cret-passphrase",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice@example.com", decodeBody(t, w)["email"])

		sid, ok := c.cookies["sid"]
		require.True(t, ok)
		assert.Equal(t, 0, sid.MaxAge, "no remember-me means a browser-session cookie")

		w = c.do("GET", "/user", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("remember me sets cookie max age", func(t *testing.T) {
		c := newClient(t, router)
		w := c.do("POST", "/login", map[string]any{
			"email":      "alice@example.com",
			"password":   "s3cret-passphrase",
			"rememberMe": true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		sid, ok := c.cookies["sid"]
		require.True(t, ok)
		assert.Equal(t, 7*24*60*60, sid.MaxAge)
	})

	t.Run("wrong password", func(t *testing.T) {
		c := newClient(t, router)
		w := c.do("POST", "/login", map[string]any{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credentials", errorCode(t, w))
	})

	t.Run("unknown email gets the same answer", func(t *testing.T) {
		c := newClient(t, router)
		w := c.do("POST", "/login", map[string]any{
			"email":    "nobody@example.com",
			"password": "whatever",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credentials", errorCode(t, w))
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)
	c := newClient(t, router)
	signup(t, c, "alice@example.com")

	w := c.do("POST", "/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, c.cookies)

	t.Run("logged out for real", func(t *testing.T) {
		w := c.do("GET", "/user", nil)
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("idempotent", func(t *testing.T) {
		w := c.do("POST", "/logout", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestGetUserByID(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)

	t.Run("requires login", func(t *testing.T) {
		c := newClient(t, router)
		w := c.do("GET", "/user/1", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthorized", errorCode(t, w))
	})

	c := newClient(t, router)
	created := signup(t, c, "alice@example.com")
	id := int64(created["id"].(float64))

	t.Run("own record", func(t *testing.T) {
		w := c.do("GET", "/user/"+jsonNumber(id), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice@example.com", decodeBody(t, w)["email"])
	})

	t.Run("unknown id", func(t *testing.T) {
		w := c.do("GET", "/user/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", errorCode(t, w))
	})

	t.Run("malformed id", func(t *testing.T) {
		w := c.do("GET", "/user/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_id", errorCode(t, w))
	})

	t.Run("non-positive id", func(t *testing.T) {
		w := c.do("GET", "/user/0", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)

	t.Run("requires login", func(t *testing.T) {
		c := newClient(t, router)
		w := c.do("DELETE", "/user/1", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deletes another account", func(t *testing.T) {
		admin := newClient(t, router)
		signup(t, admin, "admin@example.com")

		other := newClient(t, router)
		created := signup(t, other, "victim@example.com")
		id := int64(created["id"].(float64))

		w := admin.do("DELETE", "/user/"+jsonNumber(id), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = admin.do("GET", "/user/"+jsonNumber(id), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		c := newClient(t, router)
		signup(t, c, "deleter@example.com")
		w := c.do("DELETE", "/user/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateUserWhileLoggedIn(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)
	c := newClient(t, router)
	signup(t, c, "admin@example.com")

	w := c.do("POST", "/users", map[string]any{
		"email":    "newhire@example.com",
		"password": "welcome1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "newhire@example.com", decodeBody(t, w)["email"])

	// The acting session must still belong to the admin, not the new account.
	w = c.do("GET", "/user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@example.com", decodeBody(t, w)["email"])
}

func TestHealth(t *testing.T) {
	t.Parallel()

	router, _, _ := newTestRouter(t)
	c := newClient(t, router)

	w := c.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, c.cookies, "the probe must not mint sessions")
}

func jsonNumber(id int64) string {
	return strconv.FormatInt(id, 10)
}
