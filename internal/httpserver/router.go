package httpserver

import (
	"context"
	"errors"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-gateway/internal/checkout"
	"storefront-gateway/internal/store"
	"storefront-gateway/internal/upstream"
)

// relayClient is the slice of the upstream client the handlers need.
type relayClient interface {
	Do(ctx context.Context, endpoint string, opts upstream.Options) (*upstream.Response, error)
}

// Deps carries the wired dependencies for the router.
type Deps struct {
	Upstream    relayClient
	Stores      *store.Manager
	Flows       *checkout.Registry
	CORSOrigins []string
}

// buildRouter wires routes for the gateway.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Upstream == nil {
		return nil, errors.New("upstream client required")
	}
	if deps.Stores == nil {
		return nil, errors.New("store manager required")
	}
	if deps.Flows == nil {
		return nil, errors.New("flow registry required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	if len(deps.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = deps.CORSOrigins
		corsCfg.AllowCredentials = true
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Cookie")
		router.Use(cors.New(corsCfg))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{
		client: deps.Upstream,
		stores: deps.Stores,
		flows:  deps.Flows,
		logger: logger,
	}

	api := router.Group("/api", sessionMiddleware())

	api.GET("/cart", h.getCart)
	api.POST("/cart/add", h.addToCart)
	api.PATCH("/cart/update/:id", h.updateCartItem)
	api.DELETE("/cart/remove/:id", h.removeCartItem)

	api.PATCH("/checkouts/:id/next", h.checkoutNext)
	api.PUT("/checkouts/:id/next", h.checkoutNext)
	api.PATCH("/checkouts/:id/update", h.checkoutUpdate)
	api.PUT("/checkouts/:id/complete", h.checkoutComplete)

	api.GET("/checkout", h.flowState)
	api.POST("/checkout/begin", h.flowBegin)
	api.POST("/checkout/advance", h.flowAdvance)
	api.POST("/checkout/place_order", h.flowPlaceOrder)

	api.GET("/orders/current", h.getCurrentOrder)
	api.GET("/orders/:id", h.getOrder)
	api.POST("/orders/:id/review_product", h.reviewProduct)
	api.GET("/users/orders", h.getUserOrders)
	api.GET("/users/orders/:order_id/shipping_methods", h.getShippingMethods)

	api.GET("/products", h.listProducts)
	api.GET("/products/top_rated", h.topRatedProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/taxons", h.listTaxons)
	api.GET("/taxons/:id", h.getTaxon)
	api.GET("/taxons/:id/products", h.getTaxonProducts)
	api.GET("/search/products", h.searchProducts)
	api.GET("/stores/:id", h.getStore)

	api.POST("/login", h.login)
	api.POST("/auth/password/recover", h.passwordRecover)
	api.POST("/auth/password/change", h.passwordChange)

	api.GET("/addresses", h.listAddresses)
	api.POST("/addresses", h.createAddress)
	api.GET("/payment_methods", h.listPaymentMethods)

	api.GET("/notifications", h.listNotifications)
	api.DELETE("/notifications/:id", h.dismissNotification)

	return router, nil
}
