package httpserver

import (
	"context"
	"errors"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"storefront/internal/domain"
	"storefront/internal/metrics"
	ordersvc "storefront/internal/service/order"
)

type cartService interface {
	Get(ctx context.Context, userID string) (domain.CartView, error)
	Add(ctx context.Context, userID, itemID string) (domain.CartView, error)
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) (domain.CartView, error)
	Remove(ctx context.Context, userID, itemID string) (domain.CartView, error)
	Clear(ctx context.Context, userID string) (domain.CartView, error)
}

type orderService interface {
	Place(ctx context.Context, who domain.Identity, in ordersvc.CheckoutInput, idempotencyKey string) (*domain.Order, error)
	ListForUser(ctx context.Context, who domain.Identity) ([]domain.Order, error)
	ListAll(ctx context.Context, who domain.Identity) ([]domain.Order, error)
	Get(ctx context.Context, who domain.Identity, orderID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, who domain.Identity, orderID, status string) (*domain.Order, error)
}

type identityResolver interface {
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

// Deps are the collaborators the router dispatches to. Metrics is optional.
type Deps struct {
	CartSvc     cartService
	OrderSvc    orderService
	Identity    identityResolver
	Metrics     *metrics.ServerMetrics
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger logrus.FieldLogger, db Pinger, deps Deps) (*gin.Engine, error) {
	if deps.CartSvc == nil || deps.OrderSvc == nil {
		return nil, errors.New("cart and order services are required")
	}
	if deps.Identity == nil {
		return nil, errors.New("identity resolver is required")
	}

	router := gin.New()
	// Recovery sits inside accessLog and instrument so panics are logged and counted.
	router.Use(requestID(), accessLog(logger))
	if deps.Metrics != nil {
		router.Use(instrument(deps.Metrics))
	}
	router.Use(gin.CustomRecovery(recoverPanic), cors.New(corsConfig(deps.CORSOrigins)))

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	authed := router.Group("/", authenticate(deps.Identity))

	cart := &cartHandlers{svc: deps.CartSvc}
	authed.GET("/cart", cart.get)
	authed.POST("/cart/add", cart.add)
	authed.PUT("/cart/update", cart.update)
	authed.DELETE("/cart/remove/:itemId", cart.remove)
	authed.DELETE("/cart/clear", cart.clear)

	orders := &orderHandlers{svc: deps.OrderSvc}
	authed.POST("/orders", orders.place)
	authed.GET("/orders/user", orders.listForUser)
	authed.GET("/orders/all", orders.listAll)
	authed.GET("/orders/:orderId", orders.get)
	authed.PUT("/orders/:orderId/status", orders.updateStatus)

	router.NoRoute(func(c *gin.Context) {
		respondError(c, domain.ErrNotFound)
	})

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", idempotencyKeyHeader, requestIDHeader)
	cfg.ExposeHeaders = []string{requestIDHeader}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
