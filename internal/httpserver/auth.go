package httpserver

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-gateway/internal/domain"
)

type passwordChangeRequest struct {
	SpreeUser *struct {
		ResetPasswordToken   string `json:"reset_password_token"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	} `json:"spree_user"`
}

// login relays the credential check and, on success, caches the returned
// user so the checkout entry guard can see an authenticated session.
func (h *handlers) login(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read request body"})
		return
	}

	stores := h.sessionStores(c)
	if stores == nil {
		return
	}

	resp := h.relay(c, http.MethodPost, "/api/login", body)
	if resp == nil || !resp.OK() {
		return
	}

	var user domain.User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		h.logger.Printf("decode login response: %v", err)
		return
	}
	if user.ID != 0 || user.Email != "" {
		stores.SetUser(c.Request.Context(), &user)
		// Warm the order history for the account views.
		stores.FetchOrders(c.Request.Context(), cookieHeader(c))
	}
}

// passwordRecover wraps the email query parameter in the spree_user
// envelope the upstream expects.
func (h *handlers) passwordRecover(c *gin.Context) {
	email := c.Query("email")
	body, err := json.Marshal(gin.H{"spree_user": gin.H{"email": email}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode payload"})
		return
	}
	h.relay(c, http.MethodPost, "/api/auth/password/recover", body)
}

// passwordChange pre-validates token presence and confirmation match before
// any upstream call; this is the one route with field-level checks.
func (h *handlers) passwordChange(c *gin.Context) {
	var req passwordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SpreeUser == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	u := req.SpreeUser
	if u.ResetPasswordToken == "" || u.Password == "" || u.PasswordConfirmation == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}
	if u.Password != u.PasswordConfirmation {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password confirmation does not match"})
		return
	}

	body, err := json.Marshal(gin.H{
		"spree_user": gin.H{
			"reset_password_token":  u.ResetPasswordToken,
			"password":              u.Password,
			"password_confirmation": u.PasswordConfirmation,
		},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode payload"})
		return
	}
	h.relay(c, http.MethodPost, "/api/auth/password/change", body)
}

// listAddresses proxies the address book and refreshes the session's cached
// copy, including the default billing/shipping flags.
func (h *handlers) listAddresses(c *gin.Context) {
	stores := h.sessionStores(c)
	if stores == nil {
		return
	}

	resp := h.relay(c, http.MethodGet, "/api/addresses", nil)
	if resp == nil || !resp.OK() {
		return
	}

	var addresses []domain.Address
	if err := json.Unmarshal(resp.Body, &addresses); err != nil {
		h.logger.Printf("decode addresses: %v", err)
		return
	}
	user := stores.User()
	if user == nil {
		user = &domain.User{}
	}
	user.Addresses = addresses
	stores.SetUser(c.Request.Context(), user)
}

func (h *handlers) createAddress(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read request body"})
		return
	}
	h.relay(c, http.MethodPost, "/api/addresses", body)
}
