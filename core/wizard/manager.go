package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
)

// Manager defaults
const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 1024
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSessionTTL drops sessions unused for longer than ttl. Zero or less keeps them until evicted by size.
func WithSessionTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = ttl }
}

// WithMaxSessions bounds the number of live sessions, evicting the least recently used.
// Zero or less means DefaultMaxSessions.
func WithMaxSessions(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.maxSessions = n
		}
	}
}

type managedSession struct {
	session  *Session
	lastUsed time.Time
}

// Manager keeps one live Session per draft key, so concurrent callers of the same draft
// share a single state machine. Sessions whose saved draft changed behind their back are reopened.
type Manager struct {
	store       *draft.Store
	logger      core.Logger
	observer    Observer
	ttl         time.Duration
	maxSessions int
	nowFunc     func() time.Time

	mu       sync.Mutex
	sessions map[string]*managedSession
}

func NewManager(store *draft.Store, logger core.Logger, observer Observer, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if observer == nil {
		observer = NopObserver{}
	}
	m := &Manager{
		store:       store,
		logger:      logger,
		observer:    observer,
		ttl:         DefaultSessionTTL,
		maxSessions: DefaultMaxSessions,
		nowFunc:     time.Now,
		sessions:    make(map[string]*managedSession),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the draft store sessions are opened on.
func (m *Manager) Store() *draft.Store { return m.store }

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Session returns the live session of key, opening it from the store on first use
// or when the saved draft was changed by someone else.
func (m *Manager) Session(ctx context.Context, flow, key string, steps Steps) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	m.evictIdle(now)

	if ms, ok := m.sessions[key]; ok {
		if ms.session.flow != flow {
			return nil, errors.Errorf("draft %q belongs to flow %q", key, ms.session.flow)
		}
		if !ms.session.stale(ctx) {
			ms.lastUsed = now
			return ms.session, nil
		}
		m.logger.Info("wizard " + key + ": saved draft changed, reopening")
		delete(m.sessions, key)
	}

	s, err := Open(ctx, m.store, key, steps, WithFlow(flow), WithLogger(m.logger), WithObserver(m.observer))
	if err != nil {
		return nil, err
	}
	if len(m.sessions) >= m.maxSessions {
		m.evictOldest()
	}
	m.sessions[key] = &managedSession{session: s, lastUsed: now}
	return s, nil
}

// Forget drops the live session of key. The saved draft is kept.
func (m *Manager) Forget(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

// Discard clears the saved draft of key and drops its live session.
func (m *Manager) Discard(ctx context.Context, key string) error {
	m.Forget(key)
	if err := m.store.Clear(ctx, key); err != nil && !draft.IsDegraded(err) {
		return errors.Wrap(err, "discarding draft")
	}
	return nil
}

func (m *Manager) evictIdle(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	for key, ms := range m.sessions {
		if now.Sub(ms.lastUsed) > m.ttl {
			delete(m.sessions, key)
		}
	}
}

func (m *Manager) evictOldest() {
	var (
		oldest string
		at     time.Time
	)
	for key, ms := range m.sessions {
		if oldest == "" || ms.lastUsed.Before(at) {
			oldest, at = key, ms.lastUsed
		}
	}
	delete(m.sessions, oldest)
}
