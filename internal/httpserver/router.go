package httpserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"homegoods/internal/domain"
	cartsvc "homegoods/internal/service/cart"
	identitysvc "homegoods/internal/service/identity"
	imagesvc "homegoods/internal/service/image"
	ordersvc "homegoods/internal/service/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type IdentityService interface {
	Login(ctx context.Context, email, password string) (*identitysvc.Session, error)
	Lookup(ctx context.Context, token string) (domain.Identity, error)
}

type CartService interface {
	AddItem(ctx context.Context, caller domain.Identity, productID, variant string, quantity int) ([]domain.CartLine, error)
	UpdateQuantity(ctx context.Context, caller domain.Identity, productID, variant string, quantity int) ([]domain.CartLine, error)
	RemoveItem(ctx context.Context, caller domain.Identity, productID, variant string) ([]domain.CartLine, error)
	Clear(ctx context.Context, caller domain.Identity) error
	GetCart(ctx context.Context, caller domain.Identity) (*cartsvc.View, error)
}

type OrderService interface {
	Materialize(ctx context.Context, caller domain.Identity, in ordersvc.CheckoutInput) (*domain.Order, error)
	Cancel(ctx context.Context, caller domain.Identity, orderID string) (*domain.Order, error)
	Get(ctx context.Context, caller domain.Identity, orderID string) (*domain.Order, error)
	ListMine(ctx context.Context, caller domain.Identity) ([]domain.Order, error)
	ListAll(ctx context.Context, caller domain.Identity, filter domain.OrderFilter) (*ordersvc.Page, error)
	UpdateStatus(ctx context.Context, caller domain.Identity, orderID, status string) (*domain.Order, error)
}

type ImageService interface {
	List(ctx context.Context, productID string) (domain.ImageSet, error)
	AppendBatch(ctx context.Context, productID string, uploads []imagesvc.Upload) ([]domain.ProductImage, error)
	Remove(ctx context.Context, imageID string) error
	Reorder(ctx context.Context, productID string, imageIDs []string) (domain.ImageSet, error)
	SetPrimary(ctx context.Context, productID, imageID string) (domain.ImageSet, error)
	UpdateAltText(ctx context.Context, imageID, alt string) (*domain.ProductImage, error)
}

// Deps lists the services the HTTP layer adapts.
type Deps struct {
	IdentitySvc IdentityService
	CartSvc     CartService
	OrderSvc    OrderService
	ImageSvc    ImageService
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.IdentitySvc == nil || deps.CartSvc == nil || deps.OrderSvc == nil || deps.ImageSvc == nil {
		return nil, errors.New("httpserver: all services are required")
	}
	if opts.UploadMaxBytes <= 0 {
		opts.UploadMaxBytes = imagesvc.DefaultMaxBytes
	}
	if opts.UploadMaxBatch <= 0 {
		opts.UploadMaxBatch = imagesvc.DefaultMaxBatch
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(zap.NewStdLog(logger).Writer()), gin.Recovery())
	router.MaxMultipartMemory = opts.UploadMaxBytes * int64(opts.UploadMaxBatch)

	if len(opts.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	if opts.UploadDir != "" && opts.UploadURLPrefix != "" {
		router.Static("/"+strings.Trim(opts.UploadURLPrefix, "/"), opts.UploadDir)
	}

	h := &handlers{deps: deps, logger: logger, opts: opts}

	api := router.Group("/api")
	api.POST("/auth/login", h.login)

	authed := api.Group("", authMiddleware(deps.IdentitySvc))
	authed.GET("/cart", h.getCart)
	authed.POST("/cart/items", h.addCartItem)
	authed.PATCH("/cart/items", h.updateCartItem)
	authed.DELETE("/cart/items", h.removeCartItem)
	authed.DELETE("/cart", h.clearCart)

	authed.GET("/orders", h.listMyOrders)
	authed.GET("/orders/:id", h.getOrder)
	authed.POST("/orders", h.createOrder)
	authed.PATCH("/orders/:id/cancel", h.cancelOrder)

	admin := authed.Group("/admin", requireAdmin())
	admin.GET("/orders", h.listAllOrders)
	admin.PUT("/orders/:id/status", h.updateOrderStatus)
	admin.GET("/products/:productId/images", h.listImages)
	admin.POST("/products/:productId/images", h.uploadImage)
	admin.POST("/products/:productId/images/batch", h.uploadImages)
	admin.PUT("/products/:productId/images/order", h.reorderImages)
	admin.POST("/products/:productId/images/:imageId/primary", h.setPrimaryImage)
	admin.PATCH("/images/:imageId", h.updateImage)
	admin.DELETE("/images/:imageId", h.deleteImage)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
	opts   Options
}

