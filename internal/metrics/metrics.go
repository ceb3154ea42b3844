package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamnotifier_notifications_generated_total",
			Help: "Automatic expiration notifications by generation outcome",
		},
		[]string{"outcome"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamnotifier_notifications_dispatched_total",
			Help: "Pending notifications processed by the dispatcher, by final status",
		},
		[]string{"status"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamnotifier_gateway_request_duration_seconds",
			Help:    "Duration of messaging gateway calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamnotifier_http_requests_total",
			Help: "HTTP requests served, by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamnotifier_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"

	GatewayOK          = "ok"
	GatewayRejected    = "rejected"
	GatewayUnreachable = "unreachable"
)
