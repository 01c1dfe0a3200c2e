// Package worker runs the best-effort kafka consumers. Handler errors are
// logged and swallowed so a notification failure never blocks the topic.
package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront-service/internal/analytics"
	"storefront-service/internal/broker"
	"storefront-service/internal/email"
	"storefront-service/internal/gateway"
	"storefront-service/internal/models"
	"storefront-service/internal/util"
)

// EmailWorker sends transactional email in response to domain events.
type EmailWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	email        *email.Client
	logger       *zap.Logger
}

// NewEmailWorker creates a new email worker
func NewEmailWorker(consumer *broker.Consumer, emailClient *email.Client) *EmailWorker {
	w := &EmailWorker{
		consumer: consumer,
		email:    emailClient,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPaymentCaptured(w.handlePaymentCaptured)
	eventHandler.OnOrderShipped(w.handleOrderShipped)
	eventHandler.OnCustomerCreated(w.handleCustomerCreated)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *EmailWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting email worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *EmailWorker) Stop() error {
	w.logger.Info("Stopping email worker")
	return w.consumer.Close()
}

func (w *EmailWorker) handlePaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error {
	if event.CustomerEmail == "" {
		w.logger.Debug("Payment captured event has no customer email, skipping confirmation",
			zap.String("order_id", event.OrderID))
		return nil
	}

	data := email.OrderConfirmationData{
		OrderID:      event.OrderID,
		CustomerName: event.CustomerName,
		Total:        fmt.Sprintf("%.2f %s", gateway.FromMinorUnits(event.Amount), event.Currency),
	}
	if err := w.email.SendOrderConfirmation(ctx, event.CustomerEmail, data); err != nil {
		w.logger.Warn("Failed to send order confirmation",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
	return nil
}

func (w *EmailWorker) handleOrderShipped(ctx context.Context, event *models.OrderShippedEvent) error {
	if event.CustomerEmail == "" {
		return nil
	}

	data := email.ShippingUpdateData{
		OrderID:           event.OrderID,
		CustomerName:      event.CustomerName,
		TrackingNumber:    event.TrackingNumber,
		Carrier:           event.Carrier,
		EstimatedDelivery: event.EstimatedDelivery,
		Status:            "shipped",
	}
	if err := w.email.SendShippingUpdate(ctx, event.CustomerEmail, data); err != nil {
		w.logger.Warn("Failed to send shipping update",
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
	return nil
}

func (w *EmailWorker) handleCustomerCreated(ctx context.Context, event *models.CustomerCreatedEvent) error {
	data := email.WelcomeData{CustomerName: event.FirstName}
	if err := w.email.SendWelcome(ctx, event.Email, data); err != nil {
		w.logger.Warn("Failed to send welcome email",
			zap.String("customer_id", event.CustomerID),
			zap.Error(err))
	}
	return nil
}

// AnalyticsWorker forwards domain events to the analytics sinks.
type AnalyticsWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	analytics    *analytics.Forwarder
	logger       *zap.Logger
}

// NewAnalyticsWorker creates a new analytics worker
func NewAnalyticsWorker(consumer *broker.Consumer, forwarder *analytics.Forwarder) *AnalyticsWorker {
	w := &AnalyticsWorker{
		consumer:  consumer,
		analytics: forwarder,
		logger:    util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnPaymentCaptured(w.handlePaymentCaptured)
	eventHandler.OnRefundProcessed(w.handleRefundProcessed)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *AnalyticsWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting analytics worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AnalyticsWorker) Stop() error {
	w.logger.Info("Stopping analytics worker")
	return w.consumer.Close()
}

func (w *AnalyticsWorker) handlePaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error {
	evt := analytics.Event{
		EventType: "order_completed",
		UserID:    event.CustomerEmail,
		Timestamp: event.Timestamp,
		Properties: map[string]interface{}{
			"order_id": event.OrderID,
			"amount":   gateway.FromMinorUnits(event.Amount),
			"currency": event.Currency,
		},
	}
	w.analytics.TrackWeb(ctx, evt)
	w.analytics.TrackProduct(ctx, evt)
	return nil
}

func (w *AnalyticsWorker) handleRefundProcessed(ctx context.Context, event *models.RefundProcessedEvent) error {
	evt := analytics.Event{
		EventType: "order_refunded",
		UserID:    event.CustomerEmail,
		Timestamp: event.Timestamp,
		Properties: map[string]interface{}{
			"order_id":    event.OrderID,
			"refund_id":   event.RefundID,
			"refund_type": event.RefundType,
			"amount":      gateway.FromMinorUnits(event.Amount),
		},
	}
	w.analytics.TrackWeb(ctx, evt)
	w.analytics.TrackProduct(ctx, evt)
	return nil
}
