package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps session records in process memory. Intended for single
// instance deployments and tests; multi-instance deployments should use
// RedisStore so instances see each other's sessions.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	disposal DisposalFunc
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once
}

type memoryEntry struct {
	sess      *Session
	expiresAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithDisposal registers a callback invoked for every record the sweep
// evicts. Observability only.
func WithDisposal(fn DisposalFunc) MemoryStoreOption {
	return func(m *MemoryStore) {
		m.disposal = fn
	}
}

// NewMemoryStore creates an in-memory store. When checkPeriod > 0 a
// background sweep removes expired records on that interval; the sweep never
// blocks request-serving goroutines and stops on Close.
func NewMemoryStore(checkPeriod time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(store)
	}

	if checkPeriod > 0 {
		store.ticker = time.NewTicker(checkPeriod)
		go store.sweepLoop()
	}

	return store
}

// Get retrieves a session by token. Expired records are removed on read so
// callers between sweeps never see dead sessions.
func (m *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	m.mu.RLock()
	entry, exists := m.sessions[token]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}

	// Retention and the record's own expiry stamp stay in sync (Touch slides
	// both); either one lapsing kills the record.
	if time.Now().After(entry.expiresAt) || entry.sess.IsExpired() {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return nil, ErrSessionExpired
	}

	return entry.sess.clone(), nil
}

// Set upserts a session record with the given ttl.
func (m *MemoryStore) Set(ctx context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.Token == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.Token] = &memoryEntry{
		sess:      sess.clone(),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Destroy removes a session by token. Absent tokens are not an error.
func (m *MemoryStore) Destroy(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

// Touch refreshes the expiry of an existing record without rewriting it.
func (m *MemoryStore) Touch(ctx context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.sessions[token]
	if !exists {
		return ErrSessionNotFound
	}

	entry.expiresAt = time.Now().Add(ttl)
	entry.sess.ExpiresAt = entry.expiresAt
	return nil
}

// Len returns the number of live records, expired or not. Used by tests and
// the health endpoint.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops the sweep goroutine. Safe to call more than once.
func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

// sweepLoop periodically evicts expired records. Disposal callbacks run
// outside the lock so a slow observer cannot stall request serving.
func (m *MemoryStore) sweepLoop() {
	for {
		select {
		case <-m.ticker.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

func (m *MemoryStore) sweep() {
	now := time.Now()
	var evicted []string

	m.mu.Lock()
	for token, entry := range m.sessions {
		if now.After(entry.expiresAt) {
			delete(m.sessions, token)
			evicted = append(evicted, token)
		}
	}
	m.mu.Unlock()

	if m.disposal != nil {
		for _, token := range evicted {
			m.disposal(token)
		}
	}
}
