package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/service"
)

// maxWebhookBody bounds webhook payload size (1 MiB).
const maxWebhookBody = 1 << 20

// handleWebhook handles gateway webhook deliveries. The body is read raw and
// never re-serialized; the signature only verifies against the exact bytes.
func (h *Handler) handleWebhook(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_INPUT",
				"message": "failed to read request body",
			},
		})
		return
	}

	signature := c.GetHeader(service.SignatureHeader)
	if err := h.webhooks.Handle(c.Request.Context(), rawBody, signature); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
