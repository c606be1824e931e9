package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront-gateway/internal/domain"
)

// dismissAfter is how long a displayed notification lives before expiring.
const dismissAfter = 6 * time.Second

// NotificationStore is a queue of ephemeral messages in insertion order.
// Each entry self-expires after dismissAfter; Remove cancels early.
type NotificationStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	items  []domain.Notification
	timers map[string]*time.Timer
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		ttl:    dismissAfter,
		timers: make(map[string]*time.Timer),
	}
}

// Add appends a notification and arms its expiry timer, returning the id.
func (ns *NotificationStore) Add(kind domain.NotificationKind, message string, autoDismiss bool, title string) string {
	id := uuid.NewString()

	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.items = append(ns.items, domain.Notification{
		ID:          id,
		Kind:        kind,
		Message:     message,
		Title:       title,
		AutoDismiss: autoDismiss,
	})
	ns.timers[id] = time.AfterFunc(ns.ttl, func() {
		ns.Remove(id)
	})
	return id
}

// Error is shorthand for the common failure toast.
func (ns *NotificationStore) Error(message string) string {
	return ns.Add(domain.NotifyError, message, true, "")
}

// Remove dismisses a notification and cancels its expiry timer. Unknown ids
// are a no-op.
func (ns *NotificationStore) Remove(id string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if timer, ok := ns.timers[id]; ok {
		timer.Stop()
		delete(ns.timers, id)
	}
	kept := ns.items[:0]
	for _, n := range ns.items {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	ns.items = kept
}

// List returns the queued notifications in insertion order.
func (ns *NotificationStore) List() []domain.Notification {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return append([]domain.Notification(nil), ns.items...)
}
