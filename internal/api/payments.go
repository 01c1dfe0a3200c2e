package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/service"
)

// createPayment handles opening a gateway payment for an order
func (h *Handler) createPayment(c *gin.Context) {
	sess := currentSession(c)

	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payment, err := h.payments.Create(c.Request.Context(), &req, sess.Email, sess.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// verifyPayment handles the checkout callback verification and capture
func (h *Handler) verifyPayment(c *gin.Context) {
	sess := currentSession(c)

	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payment, err := h.payments.Verify(c.Request.Context(), &req, sess.Email, sess.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// getPayment handles payment lookups by gateway order id
func (h *Handler) getPayment(c *gin.Context) {
	payment, err := h.payments.Get(c.Request.Context(), c.Param("gateway_order_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// createRefund handles staff refund creation
func (h *Handler) createRefund(c *gin.Context) {
	var req service.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	refund, err := h.refunds.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"refund": refund})
}

// getRefund handles refund lookups
func (h *Handler) getRefund(c *gin.Context) {
	refund, err := h.refunds.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refund": refund})
}

// processRefund handles executing a pending refund at the gateway
func (h *Handler) processRefund(c *gin.Context) {
	refund, err := h.refunds.Process(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refund": refund})
}

type updateRefundNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

// updateRefundNote handles attaching a note to a pending refund
func (h *Handler) updateRefundNote(c *gin.Context) {
	var req updateRefundNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	refund, err := h.refunds.UpdateNote(c.Request.Context(), c.Param("id"), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refund": refund})
}

// listOrderRefunds handles listing an order's refunds
func (h *Handler) listOrderRefunds(c *gin.Context) {
	refunds, err := h.refunds.ListByOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refunds": refunds, "count": len(refunds)})
}
