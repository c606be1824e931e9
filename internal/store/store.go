// Package store holds the per-session client state the storefront keeps
// between requests: the last-known cart, order history, the signed-in user
// and ephemeral notifications. Stores cache upstream truth plus optimistic
// local edits; every value they hold is overwritten by the next fetch.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"storefront-gateway/internal/domain"
	"storefront-gateway/internal/repository/session"
	"storefront-gateway/internal/upstream"
)

// fetcher is the slice of the upstream client the stores use to re-sync.
type fetcher interface {
	Do(ctx context.Context, endpoint string, opts upstream.Options) (*upstream.Response, error)
}

// Manager hands out per-session store singletons and owns the ephemeral
// notification queues, which are never persisted. It also implements the
// upstream client's StateWiper: a 401 clears both the persisted state and
// the cached in-memory copy.
type Manager struct {
	repo   session.Repository
	logger *log.Logger

	mu            sync.Mutex
	client        fetcher
	sessions      map[string]*Stores
	notifications map[string]*NotificationStore
}

func NewManager(repo session.Repository, logger *log.Logger) *Manager {
	return &Manager{
		repo:          repo,
		logger:        logger,
		sessions:      make(map[string]*Stores),
		notifications: make(map[string]*NotificationStore),
	}
}

// SetClient wires the upstream client after construction. The client needs
// the Manager as its wiper, so the two cannot be built in one step.
func (m *Manager) SetClient(client fetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = client
}

// ForSession returns the session's store singleton, loading persisted state
// on first use. A session with no saved state starts empty.
func (m *Manager) ForSession(ctx context.Context, sessionID string) (*Stores, error) {
	m.mu.Lock()
	if s, ok := m.sessions[sessionID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	client := m.client
	m.mu.Unlock()

	s := &Stores{
		sessionID: sessionID,
		repo:      m.repo,
		client:    client,
		logger:    m.logger,
	}

	state, err := m.repo.Load(ctx, sessionID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if state != nil {
		s.revision = state.Revision
		unmarshalInto(m.logger, state.Cart, &s.cart)
		unmarshalInto(m.logger, state.Orders, &s.orders)
		unmarshalInto(m.logger, state.CurrentOrder, &s.currentOrder)
		unmarshalInto(m.logger, state.Account, &s.user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.sessions[sessionID]; ok {
		return cached, nil
	}
	m.sessions[sessionID] = s
	return s, nil
}

// Clear wipes all persisted and cached state for a session. Notifications
// are left alone; they are ephemeral by definition.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	cached := m.sessions[sessionID]
	m.mu.Unlock()
	if cached != nil {
		cached.resetLocal()
	}
	return m.repo.Clear(ctx, sessionID)
}

// Notifications returns the session's notification queue, creating it on
// first use.
func (m *Manager) Notifications(sessionID string) *NotificationStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.notifications[sessionID]
	if !ok {
		ns = NewNotificationStore()
		m.notifications[sessionID] = ns
	}
	return ns
}

func unmarshalInto(logger *log.Logger, raw []byte, dst interface{}) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Printf("decode persisted snapshot: %v", err)
	}
}

// Stores is one session's view of the client state. All mutation goes
// through its methods (single writer); reads return copies, never internal
// pointers. Every mutation is written through to the session repository.
type Stores struct {
	sessionID string
	repo      session.Repository
	client    fetcher
	logger    *log.Logger

	mu           sync.Mutex
	cart         *domain.Cart
	orders       []domain.Order
	currentOrder *domain.Order
	user         *domain.User
	revision     int64

	fetchSeq   int64
	appliedSeq int64
}

// SessionID returns the owning session's identifier.
func (s *Stores) SessionID() string {
	return s.sessionID
}

// resetLocal drops the in-memory snapshots without touching the repository.
// Used when the persisted state has already been wiped.
func (s *Stores) resetLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	s.orders = nil
	s.currentOrder = nil
	s.user = nil
}

// persist writes the current snapshots through to the repository. Failures
// are logged, not surfaced: the in-memory state stays usable and the next
// successful write repairs the stored copy.
func (s *Stores) persist(ctx context.Context) {
	s.revision++
	state := &session.State{
		SessionID:    s.sessionID,
		Cart:         marshalOrNil(s.logger, s.cart),
		Orders:       marshalOrNil(s.logger, s.orders),
		CurrentOrder: marshalOrNil(s.logger, s.currentOrder),
		Account:      marshalOrNil(s.logger, s.user),
		Revision:     s.revision,
	}
	if err := s.repo.Save(ctx, state); err != nil {
		s.logger.Printf("persist session %s: %v", s.sessionID, err)
	}
}

func marshalOrNil(logger *log.Logger, v interface{}) []byte {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logger.Printf("encode snapshot: %v", err)
		return nil
	}
	return raw
}
