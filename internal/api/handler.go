package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront-service/internal/apperr"
	"storefront-service/internal/broker"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/service"
	"storefront-service/internal/shipping"
	"storefront-service/internal/util"
)

// Handler contains HTTP handlers
type Handler struct {
	addresses      *service.AddressService
	reviews        *service.ReviewService
	wishlist       *service.WishlistService
	payments       *service.PaymentService
	refunds        *service.RefundService
	webhooks       *service.WebhookService
	shipping       *shipping.Aggregator
	eventPublisher *broker.EventPublisher
	redis          *redisclient.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(
	addresses *service.AddressService,
	reviews *service.ReviewService,
	wishlist *service.WishlistService,
	payments *service.PaymentService,
	refunds *service.RefundService,
	webhooks *service.WebhookService,
	shippingAgg *shipping.Aggregator,
	eventPublisher *broker.EventPublisher,
	redis *redisclient.Client,
) *Handler {
	return &Handler{
		addresses:      addresses,
		reviews:        reviews,
		wishlist:       wishlist,
		payments:       payments,
		refunds:        refunds,
		webhooks:       webhooks,
		shipping:       shippingAgg,
		eventPublisher: eventPublisher,
		redis:          redis,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Webhook deliveries authenticate by signature, not session.
	router.POST("/webhooks/payment", h.handleWebhook)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products/:product_id/reviews", h.listProductReviews)
		v1.GET("/shipping/tracking/:carrier/:tracking_number", h.trackShipment)

		authed := v1.Group("")
		authed.Use(h.sessionAuth())
		{
			authed.GET("/customers/me/addresses", h.listAddresses)
			authed.POST("/customers/me/addresses", h.createAddress)
			authed.GET("/customers/me/addresses/default", h.getDefaultAddress)
			authed.GET("/customers/me/addresses/:id", h.getAddress)
			authed.PUT("/customers/me/addresses/:id", h.updateAddress)
			authed.DELETE("/customers/me/addresses/:id", h.deleteAddress)
			authed.POST("/customers/me/addresses/:id/default", h.setDefaultAddress)

			authed.POST("/reviews", h.createReview)
			authed.PUT("/reviews/:id", h.updateReview)
			authed.DELETE("/reviews/:id", h.deleteReview)

			authed.GET("/customers/me/wishlist", h.listWishlist)
			authed.POST("/customers/me/wishlist", h.addWishlistItem)
			authed.DELETE("/customers/me/wishlist/:product_id", h.removeWishlistItem)

			authed.POST("/shipping/rates", h.calculateRates)

			authed.POST("/payments", h.createPayment)
			authed.POST("/payments/verify", h.verifyPayment)
			authed.GET("/payments/:gateway_order_id", h.getPayment)
		}

		admin := v1.Group("/admin")
		admin.Use(h.sessionAuth(), h.requireAdmin())
		{
			admin.POST("/reviews/:id/approve", h.approveReview)

			admin.POST("/shipping/labels", h.createLabel)

			admin.POST("/refunds", h.createRefund)
			admin.GET("/refunds/:id", h.getRefund)
			admin.POST("/refunds/:id/process", h.processRefund)
			admin.PUT("/refunds/:id/note", h.updateRefundNote)
			admin.GET("/orders/:order_id/refunds", h.listOrderRefunds)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError translates service errors into the API error envelope.
// Internal details never reach the client.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)

	var appErr *apperr.Error
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	util.GetLogger().Error("Request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    apperr.Code(err),
			"message": "internal server error",
		},
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"code":    "INVALID_INPUT",
			"message": "invalid request body: " + err.Error(),
		},
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
