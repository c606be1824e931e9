package store

import (
	"context"
	"encoding/json"
	"testing"

	"storefront-gateway/internal/domain"
	"storefront-gateway/internal/upstream"
)

func itemSum(cart *domain.Cart) int {
	sum := 0
	for _, li := range cart.LineItems {
		sum += li.Quantity
	}
	return sum
}

func TestUpdateQuantityKeepsCountInvariant(t *testing.T) {
	ctx := context.Background()
	s := testStores(t, newMemSessionRepo(), &stubFetcher{})
	s.SetCart(ctx, twoItemCart())

	if !s.UpdateQuantity(ctx, 1, 5) {
		t.Fatal("expected update to apply")
	}
	cart := s.Cart()
	if cart.ItemCount != 8 || cart.ItemCount != itemSum(cart) {
		t.Fatalf("expected item_count 8 matching sum, got %d (sum %d)", cart.ItemCount, itemSum(cart))
	}

	if !s.RemoveItem(ctx, 2) {
		t.Fatal("expected removal to apply")
	}
	cart = s.Cart()
	if len(cart.LineItems) != 1 || cart.ItemCount != 5 || cart.ItemCount != itemSum(cart) {
		t.Fatalf("expected one item and count 5, got %+v", cart)
	}
}

func TestUpdateQuantityUnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	s := testStores(t, newMemSessionRepo(), &stubFetcher{})
	s.SetCart(ctx, twoItemCart())

	if s.UpdateQuantity(ctx, 99, 10) {
		t.Fatal("expected no-op for unknown line item")
	}
	cart := s.Cart()
	if cart.ItemCount != 5 || len(cart.LineItems) != 2 {
		t.Fatalf("cart changed by no-op: %+v", cart)
	}
}

func TestRemoveItemUnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	s := testStores(t, newMemSessionRepo(), &stubFetcher{})
	s.SetCart(ctx, twoItemCart())

	if s.RemoveItem(ctx, 99) {
		t.Fatal("expected no-op for unknown line item")
	}
	cart := s.Cart()
	if cart.ItemCount != 5 || len(cart.LineItems) != 2 {
		t.Fatalf("cart changed by no-op: %+v", cart)
	}
}

func TestFetchCartSupersedesOptimisticPatch(t *testing.T) {
	ctx := context.Background()
	serverCart := twoItemCart()
	serverCart.LineItems[0].Quantity = 3
	serverCart.RecountItems()
	raw, _ := json.Marshal(serverCart)

	client := &stubFetcher{responses: map[string]*upstream.Response{
		"/cart": {StatusCode: 200, Body: raw},
	}}
	s := testStores(t, newMemSessionRepo(), client)
	s.SetCart(ctx, twoItemCart())

	// Two rapid optimistic patches, then the authoritative re-fetch wins.
	s.UpdateQuantity(ctx, 1, 5)
	s.UpdateQuantity(ctx, 1, 3)
	s.FetchCart(ctx, "")

	cart := s.Cart()
	if cart.LineItems[0].Quantity != 3 {
		t.Fatalf("expected server quantity 3, got %d", cart.LineItems[0].Quantity)
	}
	if cart.ItemCount != itemSum(cart) {
		t.Fatalf("count invariant broken: %+v", cart)
	}
}

func TestFetchCartKeepsStaleCopyOnFailure(t *testing.T) {
	ctx := context.Background()
	client := &stubFetcher{responses: map[string]*upstream.Response{
		"/cart": {StatusCode: 500, Body: []byte(`{"error":"boom"}`)},
	}}
	s := testStores(t, newMemSessionRepo(), client)
	s.SetCart(ctx, twoItemCart())
	s.UpdateQuantity(ctx, 1, 9)

	s.FetchCart(ctx, "")

	cart := s.Cart()
	if cart.LineItems[0].Quantity != 9 {
		t.Fatalf("expected stale optimistic copy kept, got %+v", cart)
	}
}

func TestReconcileCartDiscardsStaleToken(t *testing.T) {
	ctx := context.Background()
	s := testStores(t, newMemSessionRepo(), &stubFetcher{})

	older := s.NextFetchToken()
	newer := s.NextFetchToken()

	fresh := twoItemCart()
	if !s.ReconcileCart(ctx, fresh, newer) {
		t.Fatal("expected newer token to apply")
	}

	stale := &domain.Cart{ID: 7, LineItems: []domain.LineItem{{ID: 1, Quantity: 99}}, ItemCount: 99}
	if s.ReconcileCart(ctx, stale, older) {
		t.Fatal("expected stale token to be discarded")
	}

	cart := s.Cart()
	if cart.ItemCount != 5 {
		t.Fatalf("stale fetch clobbered newer state: %+v", cart)
	}
}
