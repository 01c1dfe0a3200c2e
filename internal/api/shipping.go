package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-service/internal/models"
	"storefront-service/internal/shipping"
	"storefront-service/internal/util"
)

// calculateRates handles shipping rate quoting across all carriers
func (h *Handler) calculateRates(c *gin.Context) {
	var req shipping.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quotes, err := h.shipping.CalculateRates(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rates": quotes})
}

// createLabelRequest wraps the carrier label request with the order context
// used for the shipped notification.
type createLabelRequest struct {
	shipping.LabelRequest
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
}

// createLabel handles label purchase and announces the shipment
func (h *Handler) createLabel(c *gin.Context) {
	var req createLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	label, err := h.shipping.CreateLabel(c.Request.Context(), req.LabelRequest)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.OrderID != "" {
		event := &models.OrderShippedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderShipped,
				Timestamp: time.Now(),
			},
			OrderID:        req.OrderID,
			CustomerEmail:  req.CustomerEmail,
			CustomerName:   req.CustomerName,
			TrackingNumber: label.TrackingNumber,
			Carrier:        label.Carrier,
		}
		if err := h.eventPublisher.PublishOrderShipped(c.Request.Context(), event); err != nil {
			util.GetLogger().Error("Failed to publish order shipped event",
				zap.String("order_id", req.OrderID),
				zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, gin.H{"label": label})
}

// trackShipment handles tracking lookups
func (h *Handler) trackShipment(c *gin.Context) {
	info, err := h.shipping.Track(c.Request.Context(), c.Param("tracking_number"), c.Param("carrier"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracking": info})
}
