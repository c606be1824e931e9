package store

import (
	"context"
	"encoding/json"

	"storefront-gateway/internal/domain"
	"storefront-gateway/internal/upstream"
)

// Orders returns a copy of the cached order history.
func (s *Stores) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Order(nil), s.orders...)
}

// SetOrders replaces the cached order history.
func (s *Stores) SetOrders(ctx context.Context, orders []domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append([]domain.Order(nil), orders...)
	s.persist(ctx)
}

// AddOrder appends one order to the history, typically after completion.
func (s *Stores) AddOrder(ctx context.Context, order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order)
	s.persist(ctx)
}

// UpdateOrder patches an order in the history, and the current order when it
// matches, with the non-zero fields of patch. Unknown ids are a no-op.
func (s *Stores) UpdateOrder(ctx context.Context, orderID int64, patch domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	touched := false
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			applyOrderPatch(&s.orders[i], patch)
			touched = true
		}
	}
	if s.currentOrder != nil && s.currentOrder.ID == orderID {
		applyOrderPatch(s.currentOrder, patch)
		touched = true
	}
	if touched {
		s.persist(ctx)
	}
}

// CurrentOrder returns a copy of the cached in-progress order, or nil.
func (s *Stores) CurrentOrder() *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentOrder == nil {
		return nil
	}
	out := *s.currentOrder
	out.LineItems = append([]domain.LineItem(nil), s.currentOrder.LineItems...)
	return &out
}

// SetCurrentOrder replaces the cached in-progress order.
func (s *Stores) SetCurrentOrder(ctx context.Context, order *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order == nil {
		s.currentOrder = nil
	} else {
		out := *order
		out.LineItems = append([]domain.LineItem(nil), order.LineItems...)
		s.currentOrder = &out
	}
	s.persist(ctx)
}

// ClearOrders drops the history and the current order.
func (s *Stores) ClearOrders(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = nil
	s.currentOrder = nil
	s.persist(ctx)
}

// FetchOrders re-fetches the order history from upstream. Failures keep the
// cached copy.
func (s *Stores) FetchOrders(ctx context.Context, cookie string) {
	resp, err := s.client.Do(ctx, "/api/orders", upstream.Options{
		Cookie:    cookie,
		SessionID: s.sessionID,
	})
	if err != nil {
		s.logger.Printf("fetch orders: %v", err)
		return
	}
	if !resp.OK() {
		s.logger.Printf("fetch orders: upstream status %d", resp.StatusCode)
		return
	}

	var orders []domain.Order
	if err := json.Unmarshal(resp.Body, &orders); err != nil {
		s.logger.Printf("fetch orders: decode: %v", err)
		return
	}
	s.SetOrders(ctx, orders)
}

// FetchCurrentOrder re-fetches the in-progress order from upstream.
func (s *Stores) FetchCurrentOrder(ctx context.Context, cookie string) {
	resp, err := s.client.Do(ctx, "/api/orders/current?order_id=current", upstream.Options{
		Cookie:    cookie,
		SessionID: s.sessionID,
	})
	if err != nil {
		s.logger.Printf("fetch current order: %v", err)
		return
	}
	if !resp.OK() {
		s.logger.Printf("fetch current order: upstream status %d", resp.StatusCode)
		return
	}

	var order domain.Order
	if err := json.Unmarshal(resp.Body, &order); err != nil {
		s.logger.Printf("fetch current order: decode: %v", err)
		return
	}
	s.SetCurrentOrder(ctx, &order)
}

func applyOrderPatch(dst *domain.Order, patch domain.Order) {
	if patch.State != "" {
		dst.State = patch.State
	}
	if patch.Total != "" {
		dst.Total = patch.Total
	}
	if patch.ItemTotal != "" {
		dst.ItemTotal = patch.ItemTotal
	}
	if patch.ItemCount != 0 {
		dst.ItemCount = patch.ItemCount
	}
	if patch.LineItems != nil {
		dst.LineItems = append([]domain.LineItem(nil), patch.LineItems...)
	}
	if patch.BillAddress != nil {
		dst.BillAddress = patch.BillAddress
	}
	if patch.ShipAddress != nil {
		dst.ShipAddress = patch.ShipAddress
	}
	if patch.Payments != nil {
		dst.Payments = append([]domain.Payment(nil), patch.Payments...)
	}
}
