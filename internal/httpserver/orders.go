package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/domain"
)

type reviewProductRequest struct {
	LineItemID int64  `json:"lineItemId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// getCurrentOrder proxies the in-progress order and caches it for the
// checkout flow.
func (h *handlers) getCurrentOrder(c *gin.Context) {
	stores := h.sessionStores(c)
	if stores == nil {
		return
	}

	resp := h.relay(c, http.MethodGet, "/api/orders/current?order_id=current", nil)
	if resp == nil || !resp.OK() {
		return
	}

	var order domain.Order
	if err := json.Unmarshal(resp.Body, &order); err != nil {
		h.logger.Printf("decode current order: %v", err)
		return
	}
	stores.SetCurrentOrder(c.Request.Context(), &order)
}

func (h *handlers) getOrder(c *gin.Context) {
	id := url.PathEscape(c.Param("id"))
	endpoint := fmt.Sprintf("/api/orders/%s?order_id=%s", id, id)
	h.relay(c, http.MethodGet, endpoint, nil)
}

// reviewProduct relays a rating and comment for a purchased line item.
func (h *handlers) reviewProduct(c *gin.Context) {
	var req reviewProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	body, err := json.Marshal(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode payload"})
		return
	}

	endpoint := fmt.Sprintf("/api/orders/%s/review_product", url.PathEscape(c.Param("id")))
	h.relay(c, http.MethodPost, endpoint, body)
}

// getUserOrders proxies the order history and refreshes the session's cache.
func (h *handlers) getUserOrders(c *gin.Context) {
	stores := h.sessionStores(c)
	if stores == nil {
		return
	}

	resp := h.relay(c, http.MethodGet, "/api/orders", nil)
	if resp == nil || !resp.OK() {
		return
	}

	var orders []domain.Order
	if err := json.Unmarshal(resp.Body, &orders); err != nil {
		h.logger.Printf("decode orders: %v", err)
		return
	}
	stores.SetOrders(c.Request.Context(), orders)
}

func (h *handlers) getShippingMethods(c *gin.Context) {
	endpoint := fmt.Sprintf("/api/orders/%s/available_shipping_methods", url.PathEscape(c.Param("order_id")))
	h.relay(c, http.MethodGet, endpoint, nil)
}

// listPaymentMethods passes the query string through to the payment config.
func (h *handlers) listPaymentMethods(c *gin.Context) {
	endpoint := "/api/payment_methods"
	if raw := c.Request.URL.RawQuery; raw != "" {
		endpoint += "?" + raw
	}
	h.relay(c, http.MethodGet, endpoint, nil)
}
