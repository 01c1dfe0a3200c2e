package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-service/internal/apperr"
	"storefront-service/internal/gateway"
	"storefront-service/internal/models"
	"storefront-service/internal/util"
)

// PaymentStore is the persistence surface the payment service needs.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id, status string, gatewayPaymentID sql.NullString) error
}

// PaymentGateway is the slice of the gateway client the payment flows use.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, orderID, customerEmail, customerName string) (*gateway.Order, error)
	Capture(ctx context.Context, paymentID string, amount float64, currency string) (*gateway.PaymentInfo, error)
	Refund(ctx context.Context, paymentID string, amount float64, notes map[string]string) (*gateway.RefundInfo, error)
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) error
}

// Publisher emits domain events to the broker.
type Publisher interface {
	PublishPaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error
	PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
	PublishRefundProcessed(ctx context.Context, event *models.RefundProcessedEvent) error
}

// PaymentService orchestrates the payment gateway and keeps the local payment
// records in sync with gateway-side state.
type PaymentService struct {
	store          PaymentStore
	gateway        PaymentGateway
	eventPublisher Publisher
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(st PaymentStore, gw PaymentGateway, eventPublisher Publisher) *PaymentService {
	return &PaymentService{
		store:          st,
		gateway:        gw,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreatePaymentRequest represents a request to start a payment for an order.
// Amount is in major currency units.
type CreatePaymentRequest struct {
	OrderID  string  `json:"order_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"required"`
}

// Create opens a gateway payment order and records it locally with status
// created. The returned payment carries the gateway order id the storefront
// checkout needs.
func (s *PaymentService) Create(ctx context.Context, req *CreatePaymentRequest, customerEmail, customerName string) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Create")
	defer span.End()

	order, err := s.gateway.CreateOrder(ctx, req.Amount, req.Currency, req.OrderID, customerEmail, customerName)
	if err != nil {
		util.PaymentsFailedTotal.WithLabelValues("create").Inc()
		return nil, err
	}

	payment := &models.Payment{
		OrderID:        req.OrderID,
		GatewayOrderID: order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		Status:         models.PaymentStatusCreated,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	util.PaymentsCreatedTotal.Inc()
	s.logger.Info("Payment created",
		zap.String("payment_id", payment.ID),
		zap.String("order_id", req.OrderID),
		zap.String("gateway_order_id", order.ID))
	return payment, nil
}

// VerifyPaymentRequest carries the checkout callback fields.
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// Verify validates the checkout callback signature and captures the payment.
// A bad signature marks the payment failed and is reported as a payment error.
func (s *PaymentService) Verify(ctx context.Context, req *VerifyPaymentRequest, customerEmail, customerName string) (*models.Payment, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Verify")
	defer span.End()

	payment, err := s.store.GetPaymentByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, apperr.NotFound("payment for gateway order %s not found", req.GatewayOrderID)
	}
	if payment.Status == models.PaymentStatusCaptured {
		return payment, nil
	}

	if err := s.gateway.VerifyPaymentSignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature); err != nil {
		util.PaymentVerificationsTotal.WithLabelValues("failure").Inc()
		s.markFailed(ctx, payment, req.GatewayPaymentID, "signature verification failed")
		return nil, err
	}
	util.PaymentVerificationsTotal.WithLabelValues("success").Inc()

	amount := gateway.FromMinorUnits(payment.Amount)
	if _, err := s.gateway.Capture(ctx, req.GatewayPaymentID, amount, payment.Currency); err != nil {
		util.PaymentsFailedTotal.WithLabelValues("capture").Inc()
		s.markFailed(ctx, payment, req.GatewayPaymentID, "capture failed")
		return nil, err
	}

	gatewayPayID := sql.NullString{String: req.GatewayPaymentID, Valid: true}
	if err := s.store.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusCaptured, gatewayPayID); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	payment.Status = models.PaymentStatusCaptured
	payment.GatewayPayID = gatewayPayID

	util.PaymentsCapturedTotal.Inc()
	s.logger.Info("Payment captured",
		zap.String("payment_id", payment.ID),
		zap.String("gateway_payment_id", req.GatewayPaymentID))

	event := &models.PaymentCapturedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentCaptured,
			Timestamp: time.Now(),
		},
		OrderID:          payment.OrderID,
		GatewayOrderID:   payment.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Amount:           payment.Amount,
		Currency:         payment.Currency,
		CustomerEmail:    customerEmail,
		CustomerName:     customerName,
	}
	if err := s.eventPublisher.PublishPaymentCaptured(ctx, event); err != nil {
		s.logger.Error("Failed to publish payment captured event",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
	}

	return payment, nil
}

// markFailed records a failed payment and publishes the failure event.
// Best-effort; the original error is what the caller sees.
func (s *PaymentService) markFailed(ctx context.Context, payment *models.Payment, gatewayPaymentID, reason string) {
	gatewayPayID := sql.NullString{String: gatewayPaymentID, Valid: gatewayPaymentID != ""}
	if err := s.store.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusFailed, gatewayPayID); err != nil {
		s.logger.Error("Failed to mark payment failed",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
	}

	event := &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentFailed,
			Timestamp: time.Now(),
		},
		OrderID:          payment.OrderID,
		GatewayOrderID:   payment.GatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
		Reason:           reason,
	}
	if err := s.eventPublisher.PublishPaymentFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish payment failed event",
			zap.String("payment_id", payment.ID),
			zap.Error(err))
	}
}

// MarkCaptured reconciles a gateway-reported capture, typically from a
// webhook. Already-captured payments are left untouched.
func (s *PaymentService) MarkCaptured(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error {
	payment, err := s.store.GetPaymentByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return apperr.NotFound("payment for gateway order %s not found", gatewayOrderID)
	}
	if payment.Status == models.PaymentStatusCaptured {
		return nil
	}

	gatewayPayID := sql.NullString{String: gatewayPaymentID, Valid: true}
	if err := s.store.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusCaptured, gatewayPayID); err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	util.PaymentsCapturedTotal.Inc()
	s.logger.Info("Payment capture reconciled",
		zap.String("payment_id", payment.ID),
		zap.String("gateway_payment_id", gatewayPaymentID))
	return nil
}

// MarkFailed reconciles a gateway-reported payment failure.
func (s *PaymentService) MarkFailed(ctx context.Context, gatewayOrderID, gatewayPaymentID, reason string) error {
	payment, err := s.store.GetPaymentByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return apperr.NotFound("payment for gateway order %s not found", gatewayOrderID)
	}
	if payment.Status == models.PaymentStatusCaptured || payment.Status == models.PaymentStatusFailed {
		return nil
	}

	util.PaymentsFailedTotal.WithLabelValues("webhook").Inc()
	s.markFailed(ctx, payment, gatewayPaymentID, reason)
	return nil
}

// Get retrieves the payment record for a gateway order id.
func (s *PaymentService) Get(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	payment, err := s.store.GetPaymentByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, apperr.NotFound("payment for gateway order %s not found", gatewayOrderID)
	}
	return payment, nil
}
