package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/checkout"
	"storefront-gateway/internal/domain"
)

// Checkout proxy routes: transparent relays for clients driving the
// upstream state machine directly.

func (h *handlers) checkoutNext(c *gin.Context) {
	endpoint := fmt.Sprintf("/api/checkouts/%s/next", c.Param("id"))
	h.relay(c, http.MethodPut, endpoint, nil)
}

func (h *handlers) checkoutUpdate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read request body"})
		return
	}
	endpoint := fmt.Sprintf("/api/checkouts/%s", c.Param("id"))
	h.relay(c, http.MethodPatch, endpoint, body)
}

func (h *handlers) checkoutComplete(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read request body"})
		return
	}
	endpoint := fmt.Sprintf("/api/checkouts/%s/complete", c.Param("id"))
	h.relay(c, http.MethodPut, endpoint, body)
}

// Flow routes: the gateway-managed checkout sequence.

type advanceRequest struct {
	BillingAddress     *domain.Address `json:"billing_address"`
	ShippingAddress    *domain.Address `json:"shipping_address"`
	SameAddress        bool            `json:"same_address"`
	UseDefaultBilling  bool            `json:"use_default_billing"`
	UseDefaultShipping bool            `json:"use_default_shipping"`
	ShippingRateID     int64           `json:"shipping_rate_id"`
	PaymentMethodID    int64           `json:"payment_method_id"`
}

func (h *handlers) sessionFlow(c *gin.Context) *checkout.Flow {
	stores := h.sessionStores(c)
	if stores == nil {
		return nil
	}
	sid := sessionID(c)
	return h.flows.For(sid, func() *checkout.Flow {
		return checkout.NewFlow(stores, h.stores.Notifications(sid), h.client, h.logger)
	})
}

func (h *handlers) flowState(c *gin.Context) {
	flow := h.sessionFlow(c)
	if flow == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"step":         flow.Step(),
		"order_number": flow.OrderNumber(),
	})
}

func (h *handlers) flowBegin(c *gin.Context) {
	flow := h.sessionFlow(c)
	if flow == nil {
		return
	}

	err := flow.Begin(c.Request.Context(), cookieHeader(c))
	switch {
	case errors.Is(err, checkout.ErrSignInRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.Printf("begin checkout: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "begin checkout failed"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"step":         flow.Step(),
			"order_number": flow.OrderNumber(),
		})
	}
}

func (h *handlers) flowAdvance(c *gin.Context) {
	flow := h.sessionFlow(c)
	if flow == nil {
		return
	}

	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	step, err := flow.Advance(c.Request.Context(), cookieHeader(c), checkout.AdvanceInput{
		BillingAddress:     req.BillingAddress,
		ShippingAddress:    req.ShippingAddress,
		SameAddress:        req.SameAddress,
		UseDefaultBilling:  req.UseDefaultBilling,
		UseDefaultShipping: req.UseDefaultShipping,
		ShippingRateID:     req.ShippingRateID,
		PaymentMethodID:    req.PaymentMethodID,
	})
	switch {
	case errors.Is(err, checkout.ErrNotStarted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrNoAddress), errors.Is(err, checkout.ErrNoPaymentMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "step": step})
	case errors.Is(err, checkout.ErrStepRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "step": step})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "advance checkout failed", "step": step})
	default:
		c.JSON(http.StatusOK, gin.H{"step": step})
	}
}

func (h *handlers) flowPlaceOrder(c *gin.Context) {
	flow := h.sessionFlow(c)
	if flow == nil {
		return
	}

	order, err := flow.PlaceOrder(c.Request.Context(), cookieHeader(c))
	switch {
	case errors.Is(err, checkout.ErrNotStarted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrStepRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "complete checkout failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"step": flow.Step(), "order": order})
	}
}
