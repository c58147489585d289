package session

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/accountkit/accountd/pkg/cookie"
)

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithStore sets a custom session store.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithConfig sets custom configuration.
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithCookieManager sets the cookie manager used for the session cookie.
func WithCookieManager(cookies *cookie.Manager) Option {
	return func(m *Manager) {
		m.cookies = cookies
	}
}

// WithLogger sets the logger for background warnings (sweep disposals,
// best-effort destroys).
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// NewFromConfig creates a Manager with a store selected by cfg.StoreDriver.
// The redis driver requires a client; passing none is a wiring bug and
// fails fast.
func NewFromConfig(cfg Config, redisClient redis.UniversalClient, opts ...Option) *Manager {
	var store Store
	switch cfg.StoreDriver {
	case DriverRedis:
		if redisClient == nil {
			panic("session: redis driver selected but no redis client provided")
		}
		store = NewRedisStore(redisClient)
	case DriverMemory, "":
		store = NewMemoryStore(cfg.CheckPeriod)
	default:
		panic(ErrUnknownStoreDriver)
	}

	configOpts := []Option{
		WithConfig(cfg),
		WithStore(store),
	}
	configOpts = append(configOpts, opts...)

	return New(configOpts...)
}
