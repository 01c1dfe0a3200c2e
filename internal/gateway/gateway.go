// Package gateway implements the payment gateway adapter. Amounts cross this
// package's boundary in major currency units and are converted to the
// gateway's minor units (paise) in exactly one place, toMinorUnits.
package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"storefront-service/internal/apperr"
	"storefront-service/internal/httpclient"
	"storefront-service/internal/util"
)

// Config holds gateway credentials and endpoints.
type Config struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

// Order is the gateway-side payment order created for a checkout.
type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}

// PaymentInfo is the gateway's view of a payment.
type PaymentInfo struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Email    string `json:"email"`
	Method   string `json:"method"`
}

// RefundInfo is the gateway's view of a refund.
type RefundInfo struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// Client talks to the payment gateway HTTP API. Every gateway-side failure is
// wrapped as a PaymentError; no operation retries (callers decide).
type Client struct {
	cfg    Config
	http   *httpclient.Client
	logger *zap.Logger
}

// NewClient creates a gateway client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		http:   httpclient.New("payment-gateway", 15*time.Second),
		logger: util.GetLogger(),
	}
}

// toMinorUnits converts a major-unit amount to the gateway's minor units.
// This is the only conversion point in the codebase.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts a gateway minor-unit amount back to major units.
// Kept here so unit conversion never leaks out of this package.
func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

func (c *Client) authHeader() map[string]string {
	creds := base64.StdEncoding.EncodeToString([]byte(c.cfg.KeyID + ":" + c.cfg.KeySecret))
	return map[string]string{"Authorization": "Basic " + creds}
}

// CreateOrder creates a gateway payment order for the given major-unit amount.
// The order id and customer identity travel as notes for reconciliation.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, orderID, customerEmail, customerName string) (*Order, error) {
	ctx, span := util.StartSpan(ctx, "gateway.CreateOrder")
	defer span.End()

	body := map[string]interface{}{
		"amount":   toMinorUnits(amount),
		"currency": currency,
		"receipt":  orderID,
		"notes": map[string]string{
			"order_id":       orderID,
			"customer_email": customerEmail,
			"customer_name":  customerName,
		},
	}

	var order Order
	if err := c.http.PostJSON(ctx, c.cfg.BaseURL+"/orders", c.authHeader(), body, &order); err != nil {
		c.logger.Error("Gateway order creation failed",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, apperr.Payment("failed to create gateway order: %v", err)
	}
	return &order, nil
}

// Capture captures an authorized payment for the given major-unit amount.
func (c *Client) Capture(ctx context.Context, paymentID string, amount float64, currency string) (*PaymentInfo, error) {
	ctx, span := util.StartSpan(ctx, "gateway.Capture")
	defer span.End()

	body := map[string]interface{}{
		"amount":   toMinorUnits(amount),
		"currency": currency,
	}

	var payment PaymentInfo
	url := fmt.Sprintf("%s/payments/%s/capture", c.cfg.BaseURL, paymentID)
	if err := c.http.PostJSON(ctx, url, c.authHeader(), body, &payment); err != nil {
		c.logger.Error("Payment capture failed",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil, apperr.Payment("failed to capture payment: %v", err)
	}
	return &payment, nil
}

// Refund issues a refund for the given major-unit amount against a payment.
func (c *Client) Refund(ctx context.Context, paymentID string, amount float64, notes map[string]string) (*RefundInfo, error) {
	ctx, span := util.StartSpan(ctx, "gateway.Refund")
	defer span.End()

	body := map[string]interface{}{
		"amount": toMinorUnits(amount),
		"notes":  notes,
	}

	var refund RefundInfo
	url := fmt.Sprintf("%s/payments/%s/refund", c.cfg.BaseURL, paymentID)
	if err := c.http.PostJSON(ctx, url, c.authHeader(), body, &refund); err != nil {
		c.logger.Error("Refund failed",
			zap.String("payment_id", paymentID),
			zap.Error(err))
		return nil, apperr.Payment("failed to refund payment: %v", err)
	}
	return &refund, nil
}

// Fetch retrieves a payment from the gateway.
func (c *Client) Fetch(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	ctx, span := util.StartSpan(ctx, "gateway.Fetch")
	defer span.End()

	var payment PaymentInfo
	url := fmt.Sprintf("%s/payments/%s", c.cfg.BaseURL, paymentID)
	if err := c.http.GetJSON(ctx, url, c.authHeader(), &payment); err != nil {
		return nil, apperr.Payment("failed to fetch payment: %v", err)
	}
	return &payment, nil
}
