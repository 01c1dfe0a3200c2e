package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
)

type fakeCarrier struct {
	name   string
	quotes []RateQuote
	err    error
	delay  time.Duration
}

func (f *fakeCarrier) Name() string { return f.name }

func (f *fakeCarrier) GetRates(ctx context.Context, req RateRequest) ([]RateQuote, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.quotes, f.err
}

func (f *fakeCarrier) CreateLabel(ctx context.Context, req LabelRequest) (*Label, error) {
	return &Label{TrackingNumber: "1Z999", LabelURL: "http://labels/1Z999", Carrier: f.name}, nil
}

func (f *fakeCarrier) Track(ctx context.Context, trackingNumber string) (*TrackingInfo, error) {
	return &TrackingInfo{Status: "in_transit"}, nil
}

func testRateRequest() RateRequest {
	return RateRequest{
		Origin:      Location{PostalCode: "10001", CountryCode: "US"},
		Destination: Location{PostalCode: "94107", CountryCode: "US"},
		Items:       []Package{{Weight: 2, Length: 10, Width: 8, Height: 4}},
	}
}

func TestCalculateRatesToleratesPartialFailure(t *testing.T) {
	carriers := []Carrier{
		&fakeCarrier{name: "ups", quotes: []RateQuote{{Provider: "ups", Service: "Ground", Rate: 8.5, EstimatedDays: 3}}},
		&fakeCarrier{name: "fedex", err: errors.New("upstream 503")},
		&fakeCarrier{name: "usps", quotes: []RateQuote{{Provider: "usps", Service: "Priority", Rate: 7.2, EstimatedDays: 4}}},
	}
	agg := NewAggregator(carriers, time.Second, nil)

	quotes, err := agg.CalculateRates(context.Background(), testRateRequest())
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	// Surviving quotes keep carrier registration order.
	assert.Equal(t, "ups", quotes[0].Provider)
	assert.Equal(t, "usps", quotes[1].Provider)
}

func TestCalculateRatesAllCarriersFail(t *testing.T) {
	carriers := []Carrier{
		&fakeCarrier{name: "ups", err: errors.New("timeout")},
		&fakeCarrier{name: "fedex", err: errors.New("bad credentials")},
	}
	agg := NewAggregator(carriers, time.Second, nil)

	_, err := agg.CalculateRates(context.Background(), testRateRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCalculateRatesSlowCarrierTimesOut(t *testing.T) {
	carriers := []Carrier{
		&fakeCarrier{name: "ups", quotes: []RateQuote{{Provider: "ups", Rate: 9}}},
		&fakeCarrier{name: "fedex", delay: 500 * time.Millisecond,
			quotes: []RateQuote{{Provider: "fedex", Rate: 5}}},
	}
	agg := NewAggregator(carriers, 50*time.Millisecond, nil)

	quotes, err := agg.CalculateRates(context.Background(), testRateRequest())
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "ups", quotes[0].Provider)
}

type memoryCache struct {
	data map[string][]RateQuote
}

func (m *memoryCache) CacheRates(ctx context.Context, key string, rates interface{}, ttl time.Duration) error {
	m.data[key] = rates.([]RateQuote)
	return nil
}

func (m *memoryCache) GetCachedRates(ctx context.Context, key string, dest interface{}) (bool, error) {
	rates, ok := m.data[key]
	if !ok {
		return false, nil
	}
	*dest.(*[]RateQuote) = rates
	return true, nil
}

func TestCalculateRatesUsesCache(t *testing.T) {
	carrier := &fakeCarrier{name: "ups", quotes: []RateQuote{{Provider: "ups", Rate: 8.5}}}
	cache := &memoryCache{data: map[string][]RateQuote{}}
	agg := NewAggregator([]Carrier{carrier}, time.Second, cache)

	first, err := agg.CalculateRates(context.Background(), testRateRequest())
	require.NoError(t, err)

	// Second call must be served from the cache even if the carrier fails.
	carrier.err = errors.New("carrier down")
	second, err := agg.CalculateRates(context.Background(), testRateRequest())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCreateLabelUnknownProvider(t *testing.T) {
	agg := NewAggregator([]Carrier{&fakeCarrier{name: "ups"}}, time.Second, nil)

	_, err := agg.CreateLabel(context.Background(), LabelRequest{Provider: "dhl"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestCreateLabelProviderNameCaseInsensitive(t *testing.T) {
	agg := NewAggregator([]Carrier{&fakeCarrier{name: "ups"}}, time.Second, nil)

	label, err := agg.CreateLabel(context.Background(), LabelRequest{Provider: "UPS"})
	require.NoError(t, err)
	assert.Equal(t, "ups", label.Carrier)
}
