package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"storefront-service/internal/apperr"
)

// signPayload computes the hex-encoded HMAC-SHA256 of payload under secret.
func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks the checkout callback signature computed over
// "<gatewayOrderID>|<gatewayPaymentID>" with the key secret. The comparison is
// constant time.
func (c *Client) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) error {
	expected := signPayload([]byte(gatewayOrderID+"|"+gatewayPaymentID), c.cfg.KeySecret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperr.Payment("invalid payment signature")
	}
	return nil
}

// VerifyWebhookSignature checks a webhook signature computed over the raw,
// unparsed body bytes with the webhook secret. Re-serialized bodies must never
// be used here since byte layout differences break the signature.
func (c *Client) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	expected := signPayload(rawBody, c.cfg.WebhookSecret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
