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

// RefundStore is the persistence surface the refund service needs.
type RefundStore interface {
	CreateRefund(ctx context.Context, r *models.Refund) error
	GetRefund(ctx context.Context, id string) (*models.Refund, error)
	ListRefundsByOrder(ctx context.Context, orderID string) ([]models.Refund, error)
	UpdateRefundStatus(ctx context.Context, id, status string, note sql.NullString) error
	MarkRefundProcessed(ctx context.Context, id string) error
	GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id, status string, gatewayPaymentID sql.NullString) error
}

// RefundService manages staff-issued refunds. A refund is created pending and
// becomes immutable once processed at the gateway.
type RefundService struct {
	store          RefundStore
	gateway        PaymentGateway
	eventPublisher Publisher
	logger         *zap.Logger
}

// NewRefundService creates a new refund service
func NewRefundService(st RefundStore, gw PaymentGateway, eventPublisher Publisher) *RefundService {
	return &RefundService{
		store:          st,
		gateway:        gw,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateRefundRequest represents a request to create a refund. Amount is in
// minor currency units, matching the captured payment amount.
type CreateRefundRequest struct {
	OrderID  string `json:"order_id" binding:"required"`
	ReturnID string `json:"return_id"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Type     string `json:"type" binding:"required"`
	Reason   string `json:"reason"`
	Note     string `json:"note"`
}

// Create records a pending refund against an order's captured payment. The
// amount may not exceed what was captured.
func (s *RefundService) Create(ctx context.Context, req *CreateRefundRequest) (*models.Refund, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.Create")
	defer span.End()

	if !models.ValidRefundType(req.Type) {
		return nil, apperr.InvalidInput("unknown refund type: %s", req.Type)
	}

	payment, err := s.store.GetPaymentByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil {
		return nil, apperr.NotFound("no payment found for order %s", req.OrderID)
	}
	if payment.Status != models.PaymentStatusCaptured && payment.Status != models.PaymentStatusRefunded {
		return nil, apperr.InvalidInput("payment for order %s has not been captured", req.OrderID)
	}
	if req.Amount > payment.Amount {
		return nil, apperr.InvalidInput("refund amount %d exceeds captured amount %d", req.Amount, payment.Amount)
	}

	refund := &models.Refund{
		OrderID:  req.OrderID,
		ReturnID: nullString(req.ReturnID),
		Amount:   req.Amount,
		Type:     req.Type,
		Status:   models.RefundStatusPending,
		Reason:   nullString(req.Reason),
		Note:     nullString(req.Note),
	}
	if err := s.store.CreateRefund(ctx, refund); err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	s.logger.Info("Refund created",
		zap.String("refund_id", refund.ID),
		zap.String("order_id", req.OrderID),
		zap.Int64("amount", req.Amount))
	return refund, nil
}

// Process executes a pending refund at the gateway. Processed refunds are
// immutable; reprocessing is rejected. A gateway failure marks the refund
// failed so staff can retry after investigating.
func (s *RefundService) Process(ctx context.Context, refundID string) (*models.Refund, error) {
	ctx, span := util.StartSpan(ctx, "RefundService.Process")
	defer span.End()

	refund, err := s.store.GetRefund(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund: %w", err)
	}
	if refund == nil {
		return nil, apperr.NotFound("refund %s not found", refundID)
	}
	if refund.Status == models.RefundStatusProcessed {
		return nil, apperr.InvalidInput("refund %s has already been processed", refundID)
	}

	payment, err := s.store.GetPaymentByOrderID(ctx, refund.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment == nil || !payment.GatewayPayID.Valid {
		return nil, apperr.InvalidInput("order %s has no captured gateway payment", refund.OrderID)
	}

	notes := map[string]string{
		"refund_id": refund.ID,
		"order_id":  refund.OrderID,
		"type":      refund.Type,
	}
	amount := gateway.FromMinorUnits(refund.Amount)
	if _, err := s.gateway.Refund(ctx, payment.GatewayPayID.String, amount, notes); err != nil {
		util.RefundsFailedTotal.Inc()
		note := nullString(fmt.Sprintf("gateway refund failed: %v", err))
		if uerr := s.store.UpdateRefundStatus(ctx, refund.ID, models.RefundStatusFailed, note); uerr != nil {
			s.logger.Error("Failed to mark refund failed",
				zap.String("refund_id", refund.ID),
				zap.Error(uerr))
		}
		return nil, err
	}

	if err := s.store.MarkRefundProcessed(ctx, refund.ID); err != nil {
		return nil, fmt.Errorf("failed to mark refund processed: %w", err)
	}
	refund.Status = models.RefundStatusProcessed
	refund.ProcessedAt = sql.NullTime{Time: time.Now(), Valid: true}

	if refund.Amount == payment.Amount {
		if err := s.store.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusRefunded, payment.GatewayPayID); err != nil {
			s.logger.Error("Failed to mark payment refunded",
				zap.String("payment_id", payment.ID),
				zap.Error(err))
		}
	}

	util.RefundsProcessedTotal.Inc()
	s.logger.Info("Refund processed",
		zap.String("refund_id", refund.ID),
		zap.String("order_id", refund.OrderID),
		zap.Int64("amount", refund.Amount))

	event := &models.RefundProcessedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeRefundProcessed,
			Timestamp: time.Now(),
		},
		RefundID:   refund.ID,
		OrderID:    refund.OrderID,
		Amount:     refund.Amount,
		RefundType: refund.Type,
	}
	if err := s.eventPublisher.PublishRefundProcessed(ctx, event); err != nil {
		s.logger.Error("Failed to publish refund processed event",
			zap.String("refund_id", refund.ID),
			zap.Error(err))
	}

	return refund, nil
}

// UpdateNote attaches a note to a refund. Processed refunds are immutable.
func (s *RefundService) UpdateNote(ctx context.Context, refundID, note string) (*models.Refund, error) {
	refund, err := s.store.GetRefund(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund: %w", err)
	}
	if refund == nil {
		return nil, apperr.NotFound("refund %s not found", refundID)
	}
	if refund.Status == models.RefundStatusProcessed {
		return nil, apperr.InvalidInput("refund %s has already been processed", refundID)
	}

	if err := s.store.UpdateRefundStatus(ctx, refundID, refund.Status, nullString(note)); err != nil {
		return nil, fmt.Errorf("failed to update refund: %w", err)
	}
	refund.Note = nullString(note)
	return refund, nil
}

// Get retrieves a refund by id.
func (s *RefundService) Get(ctx context.Context, refundID string) (*models.Refund, error) {
	refund, err := s.store.GetRefund(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load refund: %w", err)
	}
	if refund == nil {
		return nil, apperr.NotFound("refund %s not found", refundID)
	}
	return refund, nil
}

// ListByOrder retrieves an order's refunds, newest first.
func (s *RefundService) ListByOrder(ctx context.Context, orderID string) ([]models.Refund, error) {
	refunds, err := s.store.ListRefundsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	return refunds, nil
}
