package store

import (
	"context"
	"encoding/json"

	"storefront-gateway/internal/domain"
	"storefront-gateway/internal/upstream"
)

// User returns a copy of the signed-in user, or nil when anonymous.
func (s *Stores) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	out := *s.user
	out.Addresses = append([]domain.Address(nil), s.user.Addresses...)
	return &out
}

// Authenticated reports whether a user is cached for the session.
func (s *Stores) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// SetUser caches the signed-in user.
func (s *Stores) SetUser(ctx context.Context, user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.user = nil
	} else {
		out := *user
		out.Addresses = append([]domain.Address(nil), user.Addresses...)
		s.user = &out
	}
	s.persist(ctx)
}

// ClearUser drops the cached user.
func (s *Stores) ClearUser(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.persist(ctx)
}

// FetchAddresses refreshes the user's address book from upstream and caches
// it on the user record. Failures keep the cached copy.
func (s *Stores) FetchAddresses(ctx context.Context, cookie string) {
	resp, err := s.client.Do(ctx, "/api/addresses", upstream.Options{
		Cookie:    cookie,
		SessionID: s.sessionID,
	})
	if err != nil {
		s.logger.Printf("fetch addresses: %v", err)
		return
	}
	if !resp.OK() {
		s.logger.Printf("fetch addresses: upstream status %d", resp.StatusCode)
		return
	}

	var addresses []domain.Address
	if err := json.Unmarshal(resp.Body, &addresses); err != nil {
		s.logger.Printf("fetch addresses: decode: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		s.user = &domain.User{}
	}
	s.user.Addresses = addresses
	s.persist(ctx)
}

// DefaultBilling returns the address flagged default_billing, or nil.
func (s *Stores) DefaultBilling() *domain.Address {
	return s.defaultAddress(func(ua *domain.UserAddress) bool { return ua.DefaultBilling })
}

// DefaultShipping returns the address flagged default_shipping, or nil.
func (s *Stores) DefaultShipping() *domain.Address {
	return s.defaultAddress(func(ua *domain.UserAddress) bool { return ua.DefaultShipping })
}

func (s *Stores) defaultAddress(match func(*domain.UserAddress) bool) *domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	for i := range s.user.Addresses {
		addr := s.user.Addresses[i]
		if addr.UserAddress != nil && match(addr.UserAddress) {
			return &addr
		}
	}
	return nil
}
