package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/domain"
)

type addToCartRequest struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// getCart proxies the current cart and reconciles the session's cached copy
// with the server-confirmed one.
func (h *handlers) getCart(c *gin.Context) {
	stores := h.sessionStores(c)
	if stores == nil {
		return
	}

	token := stores.NextFetchToken()
	resp := h.relay(c, http.MethodGet, "/cart", nil)
	if resp == nil || !resp.OK() {
		return
	}

	var cart domain.Cart
	if err := json.Unmarshal(resp.Body, &cart); err != nil {
		h.logger.Printf("decode cart: %v", err)
		return
	}
	stores.ReconcileCart(c.Request.Context(), &cart, token)
}

// addToCart wraps the browser payload in the upstream line_item envelope.
// Quantity defaults to 1. Whether an existing variant merges or duplicates
// is upstream policy; the gateway performs no merge logic.
func (h *handlers) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	body, err := json.Marshal(gin.H{
		"line_item": gin.H{
			"variant_id": req.VariantID,
			"quantity":   req.Quantity,
		},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode payload"})
		return
	}

	stores := h.sessionStores(c)
	if stores == nil {
		return
	}

	resp := h.relay(c, http.MethodPost, "/api/orders/current/line_items", body)
	if resp == nil {
		return
	}
	// Resync regardless of the mutation outcome; a failed fetch keeps the
	// previous copy.
	stores.FetchCart(c.Request.Context(), cookieHeader(c))
}

// updateCartItem applies the optimistic quantity patch, relays the mutation,
// then resyncs with server truth.
func (h *handlers) updateCartItem(c *gin.Context) {
	lineItemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line item id"})
		return
	}

	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	body, err := json.Marshal(gin.H{"line_item": gin.H{"quantity": req.Quantity}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode payload"})
		return
	}

	stores := h.sessionStores(c)
	if stores == nil {
		return
	}
	stores.UpdateQuantity(c.Request.Context(), lineItemID, req.Quantity)

	endpoint := fmt.Sprintf("/api/orders/current/line_items/%d", lineItemID)
	resp := h.relay(c, http.MethodPatch, endpoint, body)
	if resp == nil {
		return
	}
	stores.FetchCart(c.Request.Context(), cookieHeader(c))
}

// removeCartItem applies the optimistic removal, relays the mutation, then
// resyncs with server truth.
func (h *handlers) removeCartItem(c *gin.Context) {
	lineItemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line item id"})
		return
	}

	stores := h.sessionStores(c)
	if stores == nil {
		return
	}
	stores.RemoveItem(c.Request.Context(), lineItemID)

	endpoint := fmt.Sprintf("/api/orders/current/line_items/%d", lineItemID)
	resp := h.relay(c, http.MethodDelete, endpoint, nil)
	if resp == nil {
		return
	}
	stores.FetchCart(c.Request.Context(), cookieHeader(c))
}
