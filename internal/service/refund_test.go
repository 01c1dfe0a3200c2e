package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
)

type fakeRefundStore struct {
	*fakePaymentStore
	refunds map[string]*models.Refund
	seq     int
}

func newFakeRefundStore() *fakeRefundStore {
	return &fakeRefundStore{
		fakePaymentStore: newFakePaymentStore(),
		refunds:          map[string]*models.Refund{},
	}
}

func (f *fakeRefundStore) CreateRefund(ctx context.Context, r *models.Refund) error {
	f.seq++
	r.ID = fmt.Sprintf("ref_%d", f.seq)
	cp := *r
	f.refunds[r.ID] = &cp
	return nil
}

func (f *fakeRefundStore) GetRefund(ctx context.Context, id string) (*models.Refund, error) {
	r, ok := f.refunds[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRefundStore) ListRefundsByOrder(ctx context.Context, orderID string) ([]models.Refund, error) {
	var out []models.Refund
	for _, r := range f.refunds {
		if r.OrderID == orderID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRefundStore) UpdateRefundStatus(ctx context.Context, id, status string, note sql.NullString) error {
	r, ok := f.refunds[id]
	if !ok {
		return errors.New("no such refund")
	}
	r.Status = status
	r.Note = note
	return nil
}

func (f *fakeRefundStore) MarkRefundProcessed(ctx context.Context, id string) error {
	r, ok := f.refunds[id]
	if !ok {
		return errors.New("no such refund")
	}
	r.Status = models.RefundStatusProcessed
	r.ProcessedAt = sql.NullTime{Valid: true}
	return nil
}

func (f *fakeRefundStore) GetPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.OrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

// capturedPayment seeds a captured payment for orderID worth amount minor units.
func (f *fakeRefundStore) capturedPayment(orderID string, amount int64) {
	f.fakePaymentStore.seq++
	id := fmt.Sprintf("pay_%d", f.fakePaymentStore.seq)
	f.payments[id] = &models.Payment{
		ID:             id,
		OrderID:        orderID,
		GatewayOrderID: "order_gw_" + orderID,
		GatewayPayID:   sql.NullString{String: "pay_gw_" + orderID, Valid: true},
		Amount:         amount,
		Currency:       "INR",
		Status:         models.PaymentStatusCaptured,
	}
}

func TestCreateRefundValidations(t *testing.T) {
	st := newFakeRefundStore()
	st.capturedPayment("order_1", 10000)
	svc := NewRefundService(st, &fakeGateway{}, &fakePublisher{})

	_, err := svc.Create(context.Background(), &CreateRefundRequest{
		OrderID: "order_1", Amount: 100, Type: "goodwill",
	})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "unknown type")

	_, err = svc.Create(context.Background(), &CreateRefundRequest{
		OrderID: "order_missing", Amount: 100, Type: models.RefundTypeReturn,
	})
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "no payment")

	_, err = svc.Create(context.Background(), &CreateRefundRequest{
		OrderID: "order_1", Amount: 20000, Type: models.RefundTypeReturn,
	})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "amount exceeds capture")
}

func TestCreateRefundStartsPending(t *testing.T) {
	st := newFakeRefundStore()
	st.capturedPayment("order_1", 10000)
	svc := NewRefundService(st, &fakeGateway{}, &fakePublisher{})

	refund, err := svc.Create(context.Background(), &CreateRefundRequest{
		OrderID: "order_1", Amount: 5000, Type: models.RefundTypePartial, Reason: "damaged item",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RefundStatusPending, refund.Status)
	assert.False(t, refund.ProcessedAt.Valid)
}

func TestProcessRefund(t *testing.T) {
	st := newFakeRefundStore()
	st.capturedPayment("order_1", 10000)
	gw := &fakeGateway{}
	pub := &fakePublisher{}
	svc := NewRefundService(st, gw, pub)

	refund, err := svc.Create(context.Background(), &CreateRefundRequest{
		OrderID: "order_1", Amount: 2500, Type: models.RefundTypePartial,
	})
	require.NoError(t, err)

	processed, err := svc.Process(context.Background(), refund.ID)
	require.NoError(t, err)

	assert.Equal(t, models.RefundStatusProcessed, processed.Status)
	assert.True(t, processed.ProcessedAt.Valid)

	// Gateway sees major units.
	require.Len(t, gw.refundCalls, 1)
	assert.Equal(t, 25.0, gw.refundCalls[0])

	require.Len(t, pub.refunded, 1)
	assert.Equal(t, refund.ID, pub.refunded[0].RefundID)

	// Partial refund leaves the payment captured.
	payment, _ := st.GetPaymentByOrderID(context.Background(), "order_1")
	assert.Equal(t, models.PaymentStatusCaptured, payment.Status)
}

func TestProcessFullRefundMarksPaymentRefunded(t *testing.T) {
	st := newFakeRefundStore()
	st.capturedPayment("order_1", 10000)
	svc := NewRefundService(st, &fakeGateway{}, &fakePublisher{})

	refund, err := svc.Create(context.Background(), &CreateRefundRequest{
		OrderID: "order_1", Amount: 10000, Type: models.RefundTypeCancellation,
	})
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), refund.ID)
	require.NoError(t, err)

	payment, _ := st.GetPaymentByOrderID(context.Background(), "order_1")
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
}

func TestProcessedRefundIsImmutable(t *testing.T) {
	st := newFakeRefundStore()
	st.capturedPayment("order_1", 10000)
	gw := &fakeGateway{}
	svc := NewRefundService(st, gw, &fakePublisher{})

	refund, err := svc.Create(context.Background(), &CreateRefundRequest{
		OrderID: "order_1", Amount: 2500, Type: models.RefundTypePartial,
	})
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), refund.ID)
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), refund.ID)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "reprocessing")
	assert.Len(t, gw.refundCalls, 1)

	_, err = svc.UpdateNote(context.Background(), refund.ID, "late note")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "note after processing")
}

func TestProcessRefundGatewayFailure(t *testing.T) {
	st := newFakeRefundStore()
	st.capturedPayment("order_1", 10000)
	gw := &fakeGateway{refundErr: apperr.Payment("gateway unavailable")}
	pub := &fakePublisher{}
	svc := NewRefundService(st, gw, pub)

	refund, err := svc.Create(context.Background(), &CreateRefundRequest{
		OrderID: "order_1", Amount: 2500, Type: models.RefundTypePartial,
	})
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), refund.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrPaymentFailed))

	stored, _ := svc.Get(context.Background(), refund.ID)
	assert.Equal(t, models.RefundStatusFailed, stored.Status)
	assert.Empty(t, pub.refunded)
}
