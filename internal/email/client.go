// Package email sends transactional email through the provider's HTTP API.
// Sending is best-effort everywhere: callers log failures and never let them
// fail the triggering operation.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"

	"storefront-service/internal/httpclient"
	"storefront-service/internal/util"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config holds email provider settings.
type Config struct {
	BaseURL string
	APIKey  string
	From    string
}

// Client renders templates and submits messages to the provider.
type Client struct {
	cfg       Config
	http      *httpclient.Client
	templates *template.Template
	logger    *zap.Logger
}

// NewClient creates an email client with all templates parsed up front.
func NewClient(cfg Config) (*Client, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &Client{
		cfg:       cfg,
		http:      httpclient.New("email-provider", 10*time.Second),
		templates: tmpl,
		logger:    util.GetLogger(),
	}, nil
}

// OrderConfirmationData fills the order confirmation template.
type OrderConfirmationData struct {
	OrderID      string
	CustomerName string
	Total        string
	Items        []OrderItem
}

// OrderItem is one line in an order confirmation.
type OrderItem struct {
	Title    string
	Quantity int
	Price    string
}

// ShippingUpdateData fills the shipping update template.
type ShippingUpdateData struct {
	OrderID           string
	CustomerName      string
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery string
	Status            string
}

// WelcomeData fills the welcome template.
type WelcomeData struct {
	CustomerName     string
	VerificationLink string
}

// SendOrderConfirmation sends the order confirmation email.
func (c *Client) SendOrderConfirmation(ctx context.Context, to string, data OrderConfirmationData) error {
	subject := fmt.Sprintf("Order Confirmation #%s", data.OrderID)
	return c.send(ctx, to, subject, "order_confirmation.html", data)
}

// SendShippingUpdate sends a shipping status email.
func (c *Client) SendShippingUpdate(ctx context.Context, to string, data ShippingUpdateData) error {
	subject := fmt.Sprintf("Shipping Update for Order #%s", data.OrderID)
	return c.send(ctx, to, subject, "shipping_update.html", data)
}

// SendWelcome sends the account welcome email.
func (c *Client) SendWelcome(ctx context.Context, to string, data WelcomeData) error {
	return c.send(ctx, to, "Welcome to Plushoff!", "welcome.html", data)
}

func (c *Client) send(ctx context.Context, to, subject, templateName string, data interface{}) error {
	var html bytes.Buffer
	if err := c.templates.ExecuteTemplate(&html, templateName, data); err != nil {
		util.EmailsSentTotal.WithLabelValues(templateName, "error").Inc()
		return fmt.Errorf("failed to render template %s: %w", templateName, err)
	}

	body := map[string]interface{}{
		"from":    c.cfg.From,
		"to":      []string{to},
		"subject": subject,
		"html":    html.String(),
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	if err := c.http.PostJSON(ctx, c.cfg.BaseURL+"/emails", headers, body, nil); err != nil {
		util.EmailsSentTotal.WithLabelValues(templateName, "error").Inc()
		return fmt.Errorf("failed to send email: %w", err)
	}

	util.EmailsSentTotal.WithLabelValues(templateName, "success").Inc()
	c.logger.Debug("Email sent", zap.String("template", templateName), zap.String("to", to))
	return nil
}
