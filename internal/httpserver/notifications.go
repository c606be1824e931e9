package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) listNotifications(c *gin.Context) {
	ns := h.stores.Notifications(sessionID(c))
	c.JSON(http.StatusOK, gin.H{"notifications": ns.List()})
}

func (h *handlers) dismissNotification(c *gin.Context) {
	ns := h.stores.Notifications(sessionID(c))
	ns.Remove(c.Param("id"))
	c.Status(http.StatusNoContent)
}
