package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountkit/accountd/pkg/cookie"
)

var testSecret = strings.Repeat("0123456789abcdef", 2)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("no secrets", func(t *testing.T) {
		_, err := cookie.New(nil)
		assert.ErrorIs(t, err, cookie.ErrNoSecret)

		_, err = cookie.New([]string{""})
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("secret too short", func(t *testing.T) {
		_, err := cookie.New([]string{"short"})
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})

	t.Run("valid", func(t *testing.T) {
		m, err := cookie.New([]string{testSecret})
		require.NoError(t, err)
		assert.NotNil(t, m)
	})
}

func TestManager_SetGet(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.Set(w, "theme", "dark"))

	r := httptest.NewRequest("GET", "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	val, err := m.Get(r, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", val)

	t.Run("missing cookie", func(t *testing.T) {
		_, err := m.Get(httptest.NewRequest("GET", "/", nil), "theme")
		assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
	})
}

func TestManager_Signed(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	t.Run("roundtrip", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "sid", "token-value"))

		r := httptest.NewRequest("GET", "/", nil)
		for _, c := range w.Result().Cookies() {
			r.AddCookie(c)
		}

		val, err := m.GetSigned(r, "sid")
		require.NoError(t, err)
		assert.Equal(t, "token-value", val)
	})

	t.Run("tampered value rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSigned(w, "sid", "token-value"))

		r := httptest.NewRequest("GET", "/", nil)
		for _, c := range w.Result().Cookies() {
			c.Value = "dG90YWxseS1mb3JnZWQ=" + c.Value[strings.Index(c.Value, "|"):]
			r.AddCookie(c)
		}

		_, err := m.GetSigned(r, "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: "sid", Value: "no-separator-here"})

		_, err := m.GetSigned(r, "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})
}

func TestManager_KeyRotation(t *testing.T) {
	t.Parallel()

	oldSecret := strings.Repeat("fedcba9876543210", 2)

	older, err := cookie.New([]string{oldSecret})
	require.NoError(t, err)

	// The rotated manager signs with the new key but still verifies the old.
	rotated, err := cookie.New([]string{testSecret, oldSecret})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, older.SetSigned(w, "sid", "survivor"))

	r := httptest.NewRequest("GET", "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	val, err := rotated.GetSigned(r, "sid")
	require.NoError(t, err)
	assert.Equal(t, "survivor", val)

	t.Run("unknown key fails", func(t *testing.T) {
		stranger, err := cookie.New([]string{strings.Repeat("x", 32)})
		require.NoError(t, err)

		_, err = stranger.GetSigned(r, "sid")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{testSecret})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	m.Delete(w, "sid")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestManager_Options(t *testing.T) {
	t.Parallel()

	m, err := cookie.New([]string{testSecret}, cookie.WithSecure(true))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	require.NoError(t, m.Set(w, "theme", "dark", cookie.WithMaxAge(3600)))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.Equal(t, "/", cookies[0].Path)
}
