package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_created_total",
		Help: "Total number of gateway payment orders created",
	})

	PaymentsCapturedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_captured_total",
		Help: "Total number of payments captured",
	})

	PaymentsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_failed_total",
		Help: "Total number of failed payment operations",
	}, []string{"operation"})

	PaymentVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Total number of payment signature verifications",
	}, []string{"result"})

	RefundsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refunds_processed_total",
		Help: "Total number of refunds processed at the gateway",
	})

	RefundsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "refunds_failed_total",
		Help: "Total number of refunds that failed at the gateway",
	})

	CarrierRateRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carrier_rate_requests_total",
		Help: "Total number of carrier rate requests",
	}, []string{"carrier", "outcome"})

	CarrierRateLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carrier_rate_latency_seconds",
		Help:    "Latency of carrier rate requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"carrier"})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhooks_received_total",
		Help: "Total number of gateway webhooks received",
	}, []string{"outcome"})

	EmailsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emails_sent_total",
		Help: "Total number of transactional emails sent",
	}, []string{"template", "outcome"})

	AnalyticsEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_events_forwarded_total",
		Help: "Total number of analytics events forwarded",
	}, []string{"sink", "outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
