package session

import (
	"net/http"
	"time"
)

// StoreDriver selects the session store implementation at construction time.
type StoreDriver string

const (
	// DriverMemory is the in-process store with a periodic expiry sweep.
	DriverMemory StoreDriver = "memory"
	// DriverRedis is the shared key-value store for multi-instance setups.
	DriverRedis StoreDriver = "redis"
)

// Config holds session and cookie policy configuration.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// Secure sets the Secure flag on session cookies (enable in production).
	Secure bool `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// HTTPOnly keeps the cookie out of reach of client-side scripts.
	HTTPOnly bool `env:"SESSION_COOKIE_HTTP_ONLY" envDefault:"true"`

	// SameSite cookie attribute; 2 = http.SameSiteLaxMode.
	SameSite http.SameSite `env:"SESSION_COOKIE_SAME_SITE" envDefault:"2"`

	// MaxAge is the default cookie lifetime. Zero means the cookie carries no
	// Max-Age attribute and lives until the browser closes. This zero is
	// meaningful and is preserved verbatim, never defaulted to a duration.
	MaxAge time.Duration `env:"SESSION_COOKIE_MAX_AGE" envDefault:"0"`

	// Resave forces a store write on every request even when the session was
	// not modified.
	Resave bool `env:"SESSION_RESAVE" envDefault:"false"`

	// SaveUninitialized persists brand-new sessions that were never modified.
	// Off by default to avoid minting records for every anonymous hit.
	SaveUninitialized bool `env:"SESSION_SAVE_UNINITIALIZED" envDefault:"false"`

	// DefaultTTL is the server-side retention for records whose cookie is a
	// browser-session cookie (MaxAge unset).
	DefaultTTL time.Duration `env:"SESSION_DEFAULT_TTL" envDefault:"24h"`

	// RememberMeDays is the cookie lifetime granted when a login requests
	// remember-me.
	RememberMeDays int `env:"SESSION_REMEMBER_ME_DAYS" envDefault:"7"`

	// CheckPeriod is the memory store sweep interval (0 disables the sweep).
	// Ignored by the redis driver, which lets Redis expire keys itself.
	CheckPeriod time.Duration `env:"SESSION_CHECK_PERIOD" envDefault:"5m"`

	// StoreDriver selects the store implementation: memory or redis.
	StoreDriver StoreDriver `env:"SESSION_STORE_DRIVER" envDefault:"memory"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		CookieName:        "sid",
		HTTPOnly:          true,
		SameSite:          http.SameSiteLaxMode,
		DefaultTTL:        24 * time.Hour,
		RememberMeDays:    7,
		CheckPeriod:       5 * time.Minute,
		StoreDriver:       DriverMemory,
		SaveUninitialized: false,
	}
}

// RememberMeMaxAge returns the configured remember-me duration.
func (c Config) RememberMeMaxAge() time.Duration {
	return time.Duration(c.RememberMeDays) * 24 * time.Hour
}

// TTL returns the server-side retention for a session record: the cookie
// Max-Age when one is set, DefaultTTL otherwise.
func (c Config) TTL(sess *Session) time.Duration {
	if sess != nil && sess.MaxAge != nil {
		return *sess.MaxAge
	}
	if c.MaxAge > 0 {
		return c.MaxAge
	}
	return c.DefaultTTL
}
