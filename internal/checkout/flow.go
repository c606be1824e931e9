// Package checkout sequences the five-step checkout flow against the
// upstream order state machine. Transitions are never computed locally: each
// step submission echoes back whatever state the server reports.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"storefront-gateway/internal/domain"
	"storefront-gateway/internal/store"
	"storefront-gateway/internal/upstream"
)

var (
	// ErrSignInRequired blocks checkout for anonymous sessions.
	ErrSignInRequired = errors.New("sign in required")
	// ErrEmptyCart blocks checkout when the cart has no line items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoAddress rejects an address submission with no usable addresses.
	ErrNoAddress = errors.New("billing and shipping addresses required")
	// ErrNoPaymentMethod rejects a payment submission before any network
	// call when no method is selected.
	ErrNoPaymentMethod = errors.New("no payment method selected")
	// ErrStepRejected wraps an upstream non-2xx on a step submission.
	ErrStepRejected = errors.New("checkout step rejected")
	// ErrNotStarted is returned when Advance runs before Begin.
	ErrNotStarted = errors.New("checkout not started")
)

type submitter interface {
	Do(ctx context.Context, endpoint string, opts upstream.Options) (*upstream.Response, error)
}

// AdvanceInput carries the step-specific selections made by the shopper.
type AdvanceInput struct {
	BillingAddress     *domain.Address
	ShippingAddress    *domain.Address
	SameAddress        bool
	UseDefaultBilling  bool
	UseDefaultShipping bool
	ShippingRateID     int64
	PaymentMethodID    int64
}

// Flow drives one session's checkout. The current step is seeded from the
// server-reported order state and only moves when a submission succeeds.
type Flow struct {
	stores *store.Stores
	notify *store.NotificationStore
	client submitter
	logger *log.Logger

	mu          sync.Mutex
	started     bool
	step        Step
	orderNumber string
}

func NewFlow(stores *store.Stores, notify *store.NotificationStore, client submitter, logger *log.Logger) *Flow {
	return &Flow{
		stores: stores,
		notify: notify,
		client: client,
		logger: logger,
	}
}

// Begin checks the entry guards and seeds the current step from the
// server-reported order state. It is safe to call again to re-seed.
func (f *Flow) Begin(ctx context.Context, cookie string) error {
	if !f.stores.Authenticated() {
		return ErrSignInRequired
	}

	f.stores.FetchCart(ctx, cookie)
	cart := f.stores.Cart()
	if cart.Empty() {
		return ErrEmptyCart
	}

	f.stores.FetchCurrentOrder(ctx, cookie)

	seed := cart.State
	if current := f.stores.CurrentOrder(); current != nil && current.State != "" {
		seed = current.State
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	f.orderNumber = cart.Number
	f.step = ParseStep(seed, StepAddress)
	return nil
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// OrderNumber returns the order the flow is driving.
func (f *Flow) OrderNumber() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orderNumber
}

// Advance submits the current step's payload to the upstream checkout and,
// on success, adopts the state the server reports. On rejection the local
// step does not move.
func (f *Flow) Advance(ctx context.Context, cookie string, input AdvanceInput) (Step, error) {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return "", ErrNotStarted
	}
	step := f.step
	number := f.orderNumber
	f.mu.Unlock()

	var (
		endpoint string
		method   string
		payload  map[string]interface{}
	)

	switch step {
	case StepAddress:
		order, err := f.addressPayload(ctx, cookie, input)
		if err != nil {
			return step, err
		}
		endpoint = fmt.Sprintf("/api/checkouts/%s", number)
		method = http.MethodPatch
		payload = map[string]interface{}{"order": order}

	case StepDelivery:
		order := map[string]interface{}{}
		if input.ShippingRateID != 0 {
			order["shipments_attributes"] = []map[string]interface{}{
				{"selected_shipping_rate_id": input.ShippingRateID},
			}
		}
		endpoint = fmt.Sprintf("/api/checkouts/%s/next", number)
		method = http.MethodPut
		payload = map[string]interface{}{"order": order}

	case StepPayment:
		if input.PaymentMethodID == 0 {
			return step, ErrNoPaymentMethod
		}
		endpoint = fmt.Sprintf("/api/checkouts/%s", number)
		method = http.MethodPatch
		payload = map[string]interface{}{
			"order": map[string]interface{}{
				"payments_attributes": []map[string]interface{}{
					{"payment_method_id": input.PaymentMethodID},
				},
			},
		}

	default:
		return step, fmt.Errorf("step %q advances via PlaceOrder", step)
	}

	resp, err := f.submit(ctx, cookie, method, endpoint, payload)
	if err != nil {
		f.notify.Error("Failed to update checkout")
		return step, err
	}
	if !resp.OK() {
		f.notify.Error("Failed to update checkout")
		if kind := resp.Kind(); kind != nil {
			return step, fmt.Errorf("%w: %w", ErrStepRejected, kind)
		}
		return step, fmt.Errorf("%w: upstream status %d", ErrStepRejected, resp.StatusCode)
	}

	reported := gjson.GetBytes(resp.Body, "state").String()
	nextStep := ParseStep(reported, step.next())

	// Keep the cached in-progress order in step with the server.
	if current := f.stores.CurrentOrder(); current != nil {
		f.stores.UpdateOrder(ctx, current.ID, domain.Order{State: string(nextStep)})
	}

	f.mu.Lock()
	f.step = nextStep
	f.mu.Unlock()
	return nextStep, nil
}

// PlaceOrder submits the completion call. On success the finished order is
// appended to the session's order history and the flow reaches complete.
func (f *Flow) PlaceOrder(ctx context.Context, cookie string) (*domain.Order, error) {
	f.mu.Lock()
	if !f.started {
		f.mu.Unlock()
		return nil, ErrNotStarted
	}
	number := f.orderNumber
	f.mu.Unlock()

	endpoint := fmt.Sprintf("/api/checkouts/%s/complete", number)
	resp, err := f.submit(ctx, cookie, http.MethodPut, endpoint, map[string]interface{}{})
	if err != nil {
		f.notify.Error("Failed to complete checkout")
		return nil, err
	}
	if !resp.OK() {
		f.notify.Error("Failed to complete checkout")
		if kind := resp.Kind(); kind != nil {
			return nil, fmt.Errorf("%w: %w", ErrStepRejected, kind)
		}
		return nil, fmt.Errorf("%w: upstream status %d", ErrStepRejected, resp.StatusCode)
	}

	var order domain.Order
	if err := json.Unmarshal(resp.Body, &order); err != nil {
		f.logger.Printf("decode completed order: %v", err)
	} else {
		f.stores.AddOrder(ctx, order)
	}

	f.mu.Lock()
	f.step = ParseStep(gjson.GetBytes(resp.Body, "state").String(), StepComplete)
	f.mu.Unlock()
	return &order, nil
}

func (f *Flow) submit(ctx context.Context, cookie, method, endpoint string, payload map[string]interface{}) (*upstream.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return f.client.Do(ctx, endpoint, upstream.Options{
		Method:         method,
		Body:           body,
		Cookie:         cookie,
		SessionID:      f.stores.SessionID(),
		IdempotencyKey: submissionKey(f.stores.SessionID(), method, endpoint, body),
	})
}

// submissionKey derives a stable idempotency key from the submission itself.
// Firing the same submission twice (a double-click, a racing duplicate
// request) yields the same key, which the upstream client collapses into one
// call; a changed payload is a new submission and gets a new key.
func submissionKey(sessionID, method, endpoint string, body []byte) string {
	data := []byte(sessionID + "\n" + method + "\n" + endpoint + "\n")
	data = append(data, body...)
	return uuid.NewSHA1(uuid.NameSpaceURL, data).String()
}

// addressPayload assembles bill/ship address attributes from the shopper's
// selections. Same-as-billing collapses shipping onto the billing address;
// defaults come from the cached address book, fetched on demand.
func (f *Flow) addressPayload(ctx context.Context, cookie string, input AdvanceInput) (map[string]interface{}, error) {
	wantsDefaultBilling := input.BillingAddress == nil && input.UseDefaultBilling
	wantsDefaultShipping := input.ShippingAddress == nil && !input.SameAddress && input.UseDefaultShipping
	if (wantsDefaultBilling && f.stores.DefaultBilling() == nil) ||
		(wantsDefaultShipping && f.stores.DefaultShipping() == nil) {
		f.stores.FetchAddresses(ctx, cookie)
	}

	billing := input.BillingAddress
	if billing == nil && input.UseDefaultBilling {
		billing = f.stores.DefaultBilling()
	}

	shipping := input.ShippingAddress
	if shipping == nil {
		switch {
		case input.SameAddress:
			shipping = billing
		case input.UseDefaultShipping:
			shipping = f.stores.DefaultShipping()
		}
	}

	if billing == nil || shipping == nil {
		return nil, ErrNoAddress
	}

	return map[string]interface{}{
		"bill_address_attributes": addressAttributes(billing),
		"ship_address_attributes": addressAttributes(shipping),
	}, nil
}

func addressAttributes(addr *domain.Address) map[string]interface{} {
	attrs := map[string]interface{}{
		"name":     addr.Name,
		"address1": addr.Address1,
		"address2": addr.Address2,
		"city":     addr.City,
		"zipcode":  addr.Zipcode,
		"phone":    addr.Phone,
	}
	if addr.ID != 0 {
		attrs["id"] = addr.ID
	}
	if addr.StateID != 0 {
		attrs["state_id"] = addr.StateID
	}
	if addr.StateName != "" {
		attrs["state_name"] = addr.StateName
	}
	if addr.CountryID != 0 {
		attrs["country_id"] = addr.CountryID
	}
	if addr.Company != "" {
		attrs["company"] = addr.Company
	}
	return attrs
}
