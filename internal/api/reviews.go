package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/service"
)

// createReview handles review creation
func (h *Handler) createReview(c *gin.Context) {
	sess := currentSession(c)

	var in service.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), sess.CustomerID, &in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review})
}

type updateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// updateReview handles review edits
func (h *Handler) updateReview(c *gin.Context) {
	sess := currentSession(c)

	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := h.reviews.Update(c.Request.Context(), sess.CustomerID, c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": review})
}

// deleteReview handles review deletion
func (h *Handler) deleteReview(c *gin.Context) {
	sess := currentSession(c)

	if err := h.reviews.Delete(c.Request.Context(), sess.CustomerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "deleted": true})
}

// approveReview handles staff approval of a review
func (h *Handler) approveReview(c *gin.Context) {
	review, err := h.reviews.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": review})
}

// listProductReviews handles listing a product's approved reviews
func (h *Handler) listProductReviews(c *gin.Context) {
	result, err := h.reviews.ListByProduct(c.Request.Context(), c.Param("product_id"), false)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
