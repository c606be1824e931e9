package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/checkout"
	"storefront-gateway/internal/store"
	"storefront-gateway/internal/upstream"
)

type handlers struct {
	client relayClient
	stores *store.Manager
	flows  *checkout.Registry
	logger *log.Logger
}

// relay translates one inbound request into exactly one upstream call and
// writes the upstream response back, status and body preserved. Transport
// failures surface as a generic 500 with no upstream detail.
func (h *handlers) relay(c *gin.Context, method, endpoint string, body []byte) *upstream.Response {
	resp, err := h.client.Do(c.Request.Context(), endpoint, upstream.Options{
		Method:    method,
		Body:      body,
		Cookie:    cookieHeader(c),
		SessionID: sessionID(c),
	})
	if err != nil {
		h.logger.Printf("relay %s %s: %v", method, endpoint, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upstream request failed"})
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, resp.Body)
	return resp
}

// sessionStores returns the request session's store view. A failure here
// means the persistence layer is down; the caller already got a 500.
func (h *handlers) sessionStores(c *gin.Context) *store.Stores {
	stores, err := h.stores.ForSession(c.Request.Context(), sessionID(c))
	if err != nil {
		h.logger.Printf("load session stores: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session state unavailable"})
		return nil
	}
	return stores
}
