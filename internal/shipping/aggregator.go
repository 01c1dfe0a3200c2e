package shipping

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront-service/internal/apperr"
	"storefront-service/internal/util"
)

// rateCacheTTL keeps quotes fresh; carriers reprice frequently.
const rateCacheTTL = 60 * time.Second

// RateCache is the optional quote cache (backed by Redis in production).
type RateCache interface {
	CacheRates(ctx context.Context, key string, rates interface{}, ttl time.Duration) error
	GetCachedRates(ctx context.Context, key string, dest interface{}) (bool, error)
}

// Aggregator fans a rate request out to every configured carrier and merges
// the survivors. Label purchase and tracking dispatch to a single carrier by
// provider name.
type Aggregator struct {
	carriers []Carrier
	timeout  time.Duration
	cache    RateCache
	logger   *zap.Logger
}

// NewAggregator creates an aggregator over carriers in registration order.
// cache may be nil to disable quote caching.
func NewAggregator(carriers []Carrier, timeout time.Duration, cache RateCache) *Aggregator {
	return &Aggregator{
		carriers: carriers,
		timeout:  timeout,
		cache:    cache,
		logger:   util.GetLogger(),
	}
}

// CalculateRates queries all carriers concurrently. A failing carrier is
// logged and excluded; only when every carrier fails or returns nothing does
// the call fail with NotFound. Quotes keep carrier registration order.
func (a *Aggregator) CalculateRates(ctx context.Context, req RateRequest) ([]RateQuote, error) {
	ctx, span := util.StartSpan(ctx, "shipping.CalculateRates")
	defer span.End()

	cacheKey := rateRequestKey(req)
	if a.cache != nil {
		var cached []RateQuote
		if hit, err := a.cache.GetCachedRates(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	results := make([][]RateQuote, len(a.carriers))
	var wg sync.WaitGroup

	for i, carrier := range a.carriers {
		wg.Add(1)
		go func(i int, carrier Carrier) {
			defer wg.Done()

			carrierCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			start := time.Now()
			quotes, err := carrier.GetRates(carrierCtx, req)
			util.CarrierRateLatency.WithLabelValues(carrier.Name()).Observe(time.Since(start).Seconds())

			if err != nil {
				util.CarrierRateRequestsTotal.WithLabelValues(carrier.Name(), "error").Inc()
				a.logger.Warn("Carrier rate request failed",
					zap.String("carrier", carrier.Name()),
					zap.Error(err))
				return
			}

			util.CarrierRateRequestsTotal.WithLabelValues(carrier.Name(), "success").Inc()
			results[i] = quotes
		}(i, carrier)
	}

	wg.Wait()

	var merged []RateQuote
	for _, quotes := range results {
		merged = append(merged, quotes...)
	}

	if len(merged) == 0 {
		return nil, apperr.NotFound("no shipping rates available")
	}

	if a.cache != nil {
		if err := a.cache.CacheRates(ctx, cacheKey, merged, rateCacheTTL); err != nil {
			a.logger.Warn("Failed to cache shipping rates", zap.Error(err))
		}
	}

	return merged, nil
}

// CreateLabel purchases a label from the named provider.
func (a *Aggregator) CreateLabel(ctx context.Context, req LabelRequest) (*Label, error) {
	ctx, span := util.StartSpan(ctx, "shipping.CreateLabel")
	defer span.End()

	carrier, err := a.carrierByName(req.Provider)
	if err != nil {
		return nil, err
	}
	return carrier.CreateLabel(ctx, req)
}

// Track fetches tracking state from the named carrier.
func (a *Aggregator) Track(ctx context.Context, trackingNumber, carrierName string) (*TrackingInfo, error) {
	ctx, span := util.StartSpan(ctx, "shipping.Track")
	defer span.End()

	carrier, err := a.carrierByName(carrierName)
	if err != nil {
		return nil, err
	}
	return carrier.Track(ctx, trackingNumber)
}

func (a *Aggregator) carrierByName(name string) (Carrier, error) {
	for _, carrier := range a.carriers {
		if strings.EqualFold(carrier.Name(), name) {
			return carrier, nil
		}
	}
	return nil, apperr.InvalidInput("unsupported shipping provider: %s", name)
}

func rateRequestKey(req RateRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
