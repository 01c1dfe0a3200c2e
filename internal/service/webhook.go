package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront-service/internal/apperr"
	"storefront-service/internal/httpclient"
	"storefront-service/internal/models"
	"storefront-service/internal/util"
)

// SignatureHeader carries the gateway's HMAC signature on webhook deliveries
// and is forwarded unchanged on the relay.
const SignatureHeader = "X-Webhook-Signature"

const dedupTTL = 24 * time.Hour

// Gateway webhook event names.
const (
	webhookPaymentCaptured = "payment.captured"
	webhookPaymentFailed   = "payment.failed"
)

// WebhookVerifier checks the delivery signature over the raw body bytes.
type WebhookVerifier interface {
	VerifyWebhookSignature(rawBody []byte, signature string) bool
}

// EventDeduper is the fast-path dedup store (Redis in production).
type EventDeduper interface {
	MarkEventSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	UnmarkEventSeen(ctx context.Context, eventID string) error
}

// WebhookStore is the durable record of handled events.
type WebhookStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
	UnmarkEventProcessed(ctx context.Context, eventID string) error
	GetPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
}

// PaymentReconciler applies gateway-reported payment state locally.
type PaymentReconciler interface {
	MarkCaptured(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error
	MarkFailed(ctx context.Context, gatewayOrderID, gatewayPaymentID, reason string) error
}

// WebhookService ingests gateway webhooks: verify over the raw bytes, dedup
// by event id, apply locally, then relay the untouched body downstream.
type WebhookService struct {
	verifier       WebhookVerifier
	dedup          EventDeduper
	store          WebhookStore
	payments       PaymentReconciler
	eventPublisher Publisher
	relay          *httpclient.Client
	relayURL       string
	logger         *zap.Logger
}

// NewWebhookService creates a new webhook service. relayURL may be empty to
// disable the downstream relay.
func NewWebhookService(
	verifier WebhookVerifier,
	dedup EventDeduper,
	st WebhookStore,
	payments PaymentReconciler,
	eventPublisher Publisher,
	relayURL string,
) *WebhookService {
	return &WebhookService{
		verifier:       verifier,
		dedup:          dedup,
		store:          st,
		payments:       payments,
		eventPublisher: eventPublisher,
		relay:          httpclient.New("webhook-relay", 10*time.Second),
		relayURL:       relayURL,
		logger:         util.GetLogger(),
	}
}

// webhookEnvelope is parsed only after the signature over the raw bytes has
// been verified.
type webhookEnvelope struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Amount           int64  `json:"amount"`
				Currency         string `json:"currency"`
				Email            string `json:"email"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Handle processes one webhook delivery. Replays of an already-processed
// event id succeed without side effects. A downstream relay failure releases
// the dedup marker and returns an error so the provider retries.
func (s *WebhookService) Handle(ctx context.Context, rawBody []byte, signature string) error {
	ctx, span := util.StartSpan(ctx, "WebhookService.Handle")
	defer span.End()

	if signature == "" {
		util.WebhooksReceivedTotal.WithLabelValues("missing_signature").Inc()
		return apperr.InvalidInput("missing %s header", SignatureHeader)
	}
	if !s.verifier.VerifyWebhookSignature(rawBody, signature) {
		util.WebhooksReceivedTotal.WithLabelValues("invalid_signature").Inc()
		return apperr.InvalidInput("invalid webhook signature")
	}

	var env webhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		util.WebhooksReceivedTotal.WithLabelValues("malformed").Inc()
		return apperr.InvalidInput("malformed webhook payload: %v", err)
	}
	if env.ID == "" {
		util.WebhooksReceivedTotal.WithLabelValues("malformed").Inc()
		return apperr.InvalidInput("webhook payload missing event id")
	}

	fresh, err := s.markSeen(ctx, env.ID, env.Event)
	if err != nil {
		return err
	}
	if !fresh {
		util.WebhooksReceivedTotal.WithLabelValues("duplicate").Inc()
		s.logger.Info("Duplicate webhook delivery ignored",
			zap.String("event_id", env.ID),
			zap.String("event", env.Event))
		return nil
	}

	s.applyEvent(ctx, &env)

	if s.relayURL != "" {
		headers := map[string]string{SignatureHeader: signature}
		if err := s.relay.PostRaw(ctx, s.relayURL, headers, rawBody); err != nil {
			s.release(ctx, env.ID)
			util.WebhooksReceivedTotal.WithLabelValues("relay_failed").Inc()
			s.logger.Error("Webhook relay failed, releasing dedup marker",
				zap.String("event_id", env.ID),
				zap.Error(err))
			return fmt.Errorf("failed to relay webhook downstream: %w", err)
		}
	}

	s.publish(ctx, &env)

	util.WebhooksReceivedTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("Webhook processed",
		zap.String("event_id", env.ID),
		zap.String("event", env.Event))
	return nil
}

// markSeen records the event id, reporting false on a replay. The Redis SETNX
// is the fast path; the processed_events table is the durable record that
// outlives the marker TTL.
func (s *WebhookService) markSeen(ctx context.Context, eventID, eventType string) (bool, error) {
	fresh, err := s.dedup.MarkEventSeen(ctx, eventID, dedupTTL)
	if err != nil {
		s.logger.Warn("Redis dedup unavailable, falling back to database",
			zap.Error(err))
	} else if !fresh {
		return false, nil
	}

	// A durable-store failure must not leave the Redis marker behind, or the
	// provider's retry would be misread as a duplicate for the marker TTL.
	processed, err := s.store.IsEventProcessed(ctx, eventID)
	if err != nil {
		s.releaseSeen(ctx, eventID)
		return false, fmt.Errorf("failed to check processed events: %w", err)
	}
	if processed {
		return false, nil
	}

	if err := s.store.MarkEventProcessed(ctx, eventID, eventType); err != nil {
		s.releaseSeen(ctx, eventID)
		return false, fmt.Errorf("failed to record processed event: %w", err)
	}
	return true, nil
}

// releaseSeen drops the Redis marker so the provider's retry is handled.
func (s *WebhookService) releaseSeen(ctx context.Context, eventID string) {
	if err := s.dedup.UnmarkEventSeen(ctx, eventID); err != nil {
		s.logger.Error("Failed to release redis dedup marker",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}

// release drops both dedup records so the provider's retry is handled.
func (s *WebhookService) release(ctx context.Context, eventID string) {
	s.releaseSeen(ctx, eventID)
	if err := s.store.UnmarkEventProcessed(ctx, eventID); err != nil {
		s.logger.Error("Failed to release processed event record",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}

// applyEvent reconciles local payment state. Webhooks can race the checkout
// callback or reference orders this service never saw, so an unknown payment
// is logged and skipped rather than failing the delivery.
func (s *WebhookService) applyEvent(ctx context.Context, env *webhookEnvelope) {
	entity := env.Payload.Payment.Entity

	var err error
	switch env.Event {
	case webhookPaymentCaptured:
		err = s.payments.MarkCaptured(ctx, entity.OrderID, entity.ID)
	case webhookPaymentFailed:
		err = s.payments.MarkFailed(ctx, entity.OrderID, entity.ID, entity.ErrorDescription)
	default:
		s.logger.Debug("Webhook event has no local handler",
			zap.String("event", env.Event))
		return
	}

	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("Webhook references unknown payment",
				zap.String("event_id", env.ID),
				zap.String("gateway_order_id", entity.OrderID))
			return
		}
		s.logger.Error("Failed to apply webhook event",
			zap.String("event_id", env.ID),
			zap.Error(err))
	}
}

// publish forwards the event to kafka for the best-effort consumers.
func (s *WebhookService) publish(ctx context.Context, env *webhookEnvelope) {
	entity := env.Payload.Payment.Entity

	// Prefer the storefront order id when the payment is known locally.
	orderID := entity.OrderID
	if payment, err := s.store.GetPaymentByGatewayOrderID(ctx, entity.OrderID); err == nil && payment != nil {
		orderID = payment.OrderID
	}

	var err error
	switch env.Event {
	case webhookPaymentCaptured:
		err = s.eventPublisher.PublishPaymentCaptured(ctx, &models.PaymentCapturedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   env.ID,
				EventType: models.EventTypePaymentCaptured,
				Timestamp: time.Now(),
			},
			OrderID:          orderID,
			GatewayOrderID:   entity.OrderID,
			GatewayPaymentID: entity.ID,
			Amount:           entity.Amount,
			Currency:         entity.Currency,
			CustomerEmail:    entity.Email,
		})
	case webhookPaymentFailed:
		err = s.eventPublisher.PublishPaymentFailed(ctx, &models.PaymentFailedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   env.ID,
				EventType: models.EventTypePaymentFailed,
				Timestamp: time.Now(),
			},
			OrderID:          orderID,
			GatewayOrderID:   entity.OrderID,
			GatewayPaymentID: entity.ID,
			Reason:           entity.ErrorDescription,
		})
	default:
		return
	}

	if err != nil {
		s.logger.Error("Failed to publish webhook event to kafka",
			zap.String("event_id", env.ID),
			zap.Error(err))
	}
}
