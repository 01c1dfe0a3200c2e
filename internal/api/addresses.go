package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/service"
)

// listAddresses handles listing the customer's addresses
func (h *Handler) listAddresses(c *gin.Context) {
	sess := currentSession(c)
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	take, _ := strconv.Atoi(c.DefaultQuery("take", "20"))

	addresses, err := h.addresses.List(c.Request.Context(), sess.CustomerID, skip, take)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"addresses": addresses, "count": len(addresses)})
}

// createAddress handles address creation
func (h *Handler) createAddress(c *gin.Context) {
	sess := currentSession(c)

	var in service.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	addr, err := h.addresses.Create(c.Request.Context(), sess.CustomerID, &in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"address": addr})
}

// getAddress handles fetching a single address
func (h *Handler) getAddress(c *gin.Context) {
	sess := currentSession(c)

	addr, err := h.addresses.Get(c.Request.Context(), sess.CustomerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr})
}

// getDefaultAddress handles fetching the customer's default address
func (h *Handler) getDefaultAddress(c *gin.Context) {
	sess := currentSession(c)

	addr, err := h.addresses.GetDefault(c.Request.Context(), sess.CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr})
}

// updateAddress handles address updates
func (h *Handler) updateAddress(c *gin.Context) {
	sess := currentSession(c)

	var in service.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	addr, err := h.addresses.Update(c.Request.Context(), sess.CustomerID, c.Param("id"), &in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr})
}

// setDefaultAddress handles promoting an address to default
func (h *Handler) setDefaultAddress(c *gin.Context) {
	sess := currentSession(c)

	addr, err := h.addresses.SetDefault(c.Request.Context(), sess.CustomerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"address": addr})
}

// deleteAddress handles address deletion
func (h *Handler) deleteAddress(c *gin.Context) {
	sess := currentSession(c)

	if err := h.addresses.Delete(c.Request.Context(), sess.CustomerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "deleted": true})
}
