package store

import (
	"context"
	"encoding/json"

	"storefront-gateway/internal/domain"
	"storefront-gateway/internal/upstream"
)

// Cart returns a copy of the last-known cart, or nil when none is cached.
func (s *Stores) Cart() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCart(s.cart)
}

// SetCart replaces the cached cart wholesale.
func (s *Stores) SetCart(ctx context.Context, cart *domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = copyCart(cart)
	s.persist(ctx)
}

// UpdateQuantity optimistically sets the quantity of one line item and
// recounts item_count. The server update happens through a separate proxy
// call; this only projects the expected outcome. Unknown ids are a no-op.
func (s *Stores) UpdateQuantity(ctx context.Context, lineItemID int64, quantity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return false
	}
	for i := range s.cart.LineItems {
		if s.cart.LineItems[i].ID == lineItemID {
			s.cart.LineItems[i].Quantity = quantity
			s.cart.RecountItems()
			s.persist(ctx)
			return true
		}
	}
	return false
}

// RemoveItem optimistically drops one line item and recounts item_count.
// Unknown ids are a no-op.
func (s *Stores) RemoveItem(ctx context.Context, lineItemID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return false
	}
	kept := s.cart.LineItems[:0]
	removed := false
	for _, li := range s.cart.LineItems {
		if li.ID == lineItemID {
			removed = true
			continue
		}
		kept = append(kept, li)
	}
	if !removed {
		return false
	}
	s.cart.LineItems = kept
	s.cart.RecountItems()
	s.persist(ctx)
	return true
}

// ClearCart drops the cached cart.
func (s *Stores) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = nil
	s.persist(ctx)
}

// NextFetchToken reserves an ordering token for a cart fetch. Tokens make
// reconciliation monotonic: a response that raced with a later fetch and
// arrived after it is discarded instead of clobbering newer state.
func (s *Stores) NextFetchToken() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchSeq++
	return s.fetchSeq
}

// ReconcileCart applies a server-confirmed cart fetched under token. It
// reports whether the cart was applied; stale tokens are dropped.
func (s *Stores) ReconcileCart(ctx context.Context, cart *domain.Cart, token int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token <= s.appliedSeq {
		return false
	}
	s.appliedSeq = token
	s.cart = copyCart(cart)
	s.persist(ctx)
	return true
}

// FetchCart re-fetches the cart from upstream and reconciles it, superseding
// any optimistic patch. Failures keep the stale local copy and are logged,
// matching the storefront's silent resync.
func (s *Stores) FetchCart(ctx context.Context, cookie string) {
	token := s.NextFetchToken()

	resp, err := s.client.Do(ctx, "/cart", upstream.Options{
		Cookie:    cookie,
		SessionID: s.sessionID,
	})
	if err != nil {
		s.logger.Printf("fetch cart: %v", err)
		return
	}
	if !resp.OK() {
		s.logger.Printf("fetch cart: upstream status %d", resp.StatusCode)
		return
	}

	var cart domain.Cart
	if err := json.Unmarshal(resp.Body, &cart); err != nil {
		s.logger.Printf("fetch cart: decode: %v", err)
		return
	}
	s.ReconcileCart(ctx, &cart, token)
}

func copyCart(cart *domain.Cart) *domain.Cart {
	if cart == nil {
		return nil
	}
	out := *cart
	out.LineItems = append([]domain.LineItem(nil), cart.LineItems...)
	return &out
}
