package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addWishlistRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// addWishlistItem handles adding a product to the wishlist
func (h *Handler) addWishlistItem(c *gin.Context) {
	sess := currentSession(c)

	var req addWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.wishlist.Add(c.Request.Context(), sess.CustomerID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// removeWishlistItem handles removing a product from the wishlist
func (h *Handler) removeWishlistItem(c *gin.Context) {
	sess := currentSession(c)

	if err := h.wishlist.Remove(c.Request.Context(), sess.CustomerID, c.Param("product_id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_id": c.Param("product_id"), "deleted": true})
}

// listWishlist handles listing the customer's wishlist
func (h *Handler) listWishlist(c *gin.Context) {
	sess := currentSession(c)

	items, err := h.wishlist.List(c.Request.Context(), sess.CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}
