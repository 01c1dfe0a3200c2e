package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/gateway"
	"storefront-service/internal/models"
)

const testWebhookSecret = "webhook-secret"

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type fakeDeduper struct {
	seen map[string]bool
}

func (f *fakeDeduper) MarkEventSeen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	return true, nil
}

func (f *fakeDeduper) UnmarkEventSeen(ctx context.Context, eventID string) error {
	delete(f.seen, eventID)
	return nil
}

type fakeWebhookStore struct {
	processed map[string]bool
	payments  map[string]*models.Payment
	markErr   error
}

func (f *fakeWebhookStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeWebhookStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	if f.markErr != nil {
		err := f.markErr
		f.markErr = nil
		return err
	}
	f.processed[eventID] = true
	return nil
}

func (f *fakeWebhookStore) UnmarkEventProcessed(ctx context.Context, eventID string) error {
	delete(f.processed, eventID)
	return nil
}

func (f *fakeWebhookStore) GetPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	p, ok := f.payments[gatewayOrderID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

type fakeReconciler struct {
	captured []string
	failed   []string
}

func (f *fakeReconciler) MarkCaptured(ctx context.Context, gatewayOrderID, gatewayPaymentID string) error {
	f.captured = append(f.captured, gatewayOrderID)
	return nil
}

func (f *fakeReconciler) MarkFailed(ctx context.Context, gatewayOrderID, gatewayPaymentID, reason string) error {
	f.failed = append(f.failed, gatewayOrderID)
	return nil
}

func newWebhookFixture(relayURL string) (*WebhookService, *fakeDeduper, *fakeWebhookStore, *fakeReconciler, *fakePublisher) {
	verifier := gateway.NewClient(gateway.Config{WebhookSecret: testWebhookSecret})
	dedup := &fakeDeduper{seen: map[string]bool{}}
	st := &fakeWebhookStore{processed: map[string]bool{}, payments: map[string]*models.Payment{}}
	rec := &fakeReconciler{}
	pub := &fakePublisher{}
	svc := NewWebhookService(verifier, dedup, st, rec, pub, relayURL)
	return svc, dedup, st, rec, pub
}

const capturedEventBody = `{"id":"evt_1","event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_gw_1","order_id":"order_gw_1","amount":49999,"currency":"INR","email":"a@b.com"}}}}`

func TestWebhookMissingSignature(t *testing.T) {
	svc, _, _, rec, _ := newWebhookFixture("")

	err := svc.Handle(context.Background(), []byte(capturedEventBody), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	assert.Empty(t, rec.captured)
}

func TestWebhookTamperedBodyRejected(t *testing.T) {
	var relayCalls int32
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&relayCalls, 1)
	}))
	defer relay.Close()

	svc, _, _, rec, _ := newWebhookFixture(relay.URL)

	body := []byte(capturedEventBody)
	sig := signBody(body)

	// One byte changed after signing.
	tampered := []byte(capturedEventBody)
	tampered[len(tampered)-2] = 'x'

	err := svc.Handle(context.Background(), tampered, sig)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	// Nothing applied, nothing relayed.
	assert.Empty(t, rec.captured)
	assert.Zero(t, atomic.LoadInt32(&relayCalls))
}

func TestWebhookAppliesAndRelays(t *testing.T) {
	var relayed atomic.Value
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		relayed.Store(struct {
			body string
			sig  string
		}{string(body), r.Header.Get(SignatureHeader)})
	}))
	defer relay.Close()

	svc, _, _, rec, pub := newWebhookFixture(relay.URL)

	body := []byte(capturedEventBody)
	sig := signBody(body)

	require.NoError(t, svc.Handle(context.Background(), body, sig))

	require.Len(t, rec.captured, 1)
	assert.Equal(t, "order_gw_1", rec.captured[0])

	// The relay gets the exact bytes and the original signature header.
	got := relayed.Load().(struct {
		body string
		sig  string
	})
	assert.Equal(t, capturedEventBody, got.body)
	assert.Equal(t, sig, got.sig)

	require.Len(t, pub.captured, 1)
	assert.Equal(t, int64(49999), pub.captured[0].Amount)
}

func TestWebhookReplayHasNoSideEffects(t *testing.T) {
	var relayCalls int32
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&relayCalls, 1)
	}))
	defer relay.Close()

	svc, _, _, rec, pub := newWebhookFixture(relay.URL)

	body := []byte(capturedEventBody)
	sig := signBody(body)

	require.NoError(t, svc.Handle(context.Background(), body, sig))
	require.NoError(t, svc.Handle(context.Background(), body, sig))

	assert.Len(t, rec.captured, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&relayCalls))
	assert.Len(t, pub.captured, 1)
}

func TestWebhookDedupSurvivesExpiredRedisMarker(t *testing.T) {
	svc, dedup, _, rec, _ := newWebhookFixture("")

	body := []byte(capturedEventBody)
	sig := signBody(body)

	require.NoError(t, svc.Handle(context.Background(), body, sig))

	// Simulate the Redis marker expiring; the durable record still dedups.
	dedup.seen = map[string]bool{}
	require.NoError(t, svc.Handle(context.Background(), body, sig))

	assert.Len(t, rec.captured, 1)
}

func TestWebhookRelayFailureReleasesMarker(t *testing.T) {
	var healthy atomic.Bool
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer relay.Close()

	svc, dedup, st, _, _ := newWebhookFixture(relay.URL)

	body := []byte(capturedEventBody)
	sig := signBody(body)

	err := svc.Handle(context.Background(), body, sig)
	require.Error(t, err)

	// Markers released so the provider's retry is processed.
	assert.Empty(t, dedup.seen)
	assert.Empty(t, st.processed)

	healthy.Store(true)
	require.NoError(t, svc.Handle(context.Background(), body, sig))
	assert.True(t, st.processed["evt_1"])
}

func TestWebhookStoreFailureReleasesRedisMarker(t *testing.T) {
	svc, dedup, st, rec, _ := newWebhookFixture("")
	st.markErr = errors.New("insert failed")

	body := []byte(capturedEventBody)
	sig := signBody(body)

	err := svc.Handle(context.Background(), body, sig)
	require.Error(t, err)

	// The Redis marker is gone, so the retry is not misread as a duplicate.
	assert.Empty(t, dedup.seen)
	assert.Empty(t, rec.captured)

	require.NoError(t, svc.Handle(context.Background(), body, sig))
	assert.Len(t, rec.captured, 1)
	assert.True(t, st.processed["evt_1"])
}

func TestWebhookFailedEventMarksPaymentFailed(t *testing.T) {
	svc, _, _, rec, pub := newWebhookFixture("")

	body := []byte(`{"id":"evt_2","event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_gw_2","order_id":"order_gw_2","error_description":"card declined"}}}}`)
	require.NoError(t, svc.Handle(context.Background(), body, signBody(body)))

	require.Len(t, rec.failed, 1)
	assert.Equal(t, "order_gw_2", rec.failed[0])
	require.Len(t, pub.failed, 1)
	assert.Equal(t, "card declined", pub.failed[0].Reason)
}

func TestWebhookUnknownEventAccepted(t *testing.T) {
	svc, _, st, rec, pub := newWebhookFixture("")

	body := []byte(`{"id":"evt_3","event":"settlement.processed","payload":{}}`)
	require.NoError(t, svc.Handle(context.Background(), body, signBody(body)))

	assert.True(t, st.processed["evt_3"])
	assert.Empty(t, rec.captured)
	assert.Empty(t, pub.captured)
}
