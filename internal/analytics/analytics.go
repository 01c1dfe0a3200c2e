// Package analytics forwards events to the web and product analytics sinks.
// Forwarding is strictly best-effort: every failure is logged and swallowed.
package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront-service/internal/httpclient"
	"storefront-service/internal/util"
)

// Config holds the two ingestion endpoints.
type Config struct {
	WebEndpoint     string
	ProductEndpoint string
	APIKey          string
}

// Event is the common payload forwarded to both sinks.
type Event struct {
	EventType  string                 `json:"event_type"`
	UserID     string                 `json:"user_id,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// Forwarder pushes events to the configured analytics sinks.
type Forwarder struct {
	cfg    Config
	http   *httpclient.Client
	logger *zap.Logger
}

// NewForwarder creates an analytics forwarder.
func NewForwarder(cfg Config) *Forwarder {
	return &Forwarder{
		cfg:    cfg,
		http:   httpclient.New("analytics", 5*time.Second),
		logger: util.GetLogger(),
	}
}

// TrackWeb forwards an event to the web analytics sink.
func (f *Forwarder) TrackWeb(ctx context.Context, event Event) {
	f.forward(ctx, "web", f.cfg.WebEndpoint, event)
}

// TrackProduct forwards an event to the product analytics sink.
func (f *Forwarder) TrackProduct(ctx context.Context, event Event) {
	f.forward(ctx, "product", f.cfg.ProductEndpoint, event)
}

func (f *Forwarder) forward(ctx context.Context, sink, endpoint string, event Event) {
	if endpoint == "" {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	headers := map[string]string{"Authorization": "Bearer " + f.cfg.APIKey}
	if err := f.http.PostJSON(ctx, endpoint, headers, event, nil); err != nil {
		util.AnalyticsEventsTotal.WithLabelValues(sink, "error").Inc()
		f.logger.Warn("Failed to forward analytics event",
			zap.String("sink", sink),
			zap.String("event_type", event.EventType),
			zap.Error(err))
		return
	}
	util.AnalyticsEventsTotal.WithLabelValues(sink, "success").Inc()
}
