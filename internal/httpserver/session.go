package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookieName = "storefront_session"
	sessionCtxKey     = "storefront.session"
)

// sessionMiddleware pins a gateway session ID to the browser. The upstream
// commerce session rides in whatever cookies the browser already carries;
// this ID only keys the gateway's own state stores.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookieName)
		if err != nil || id == "" {
			id = uuid.NewString()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     sessionCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(sessionCtxKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	if v, ok := c.Get(sessionCtxKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// cookieHeader returns the inbound Cookie header, forwarded verbatim on
// every upstream call.
func cookieHeader(c *gin.Context) string {
	return c.GetHeader("Cookie")
}
