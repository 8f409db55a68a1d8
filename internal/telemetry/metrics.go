package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accounts_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Transfer metrics
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_transfers_total",
			Help: "Total number of transfer attempts by outcome",
		},
		[]string{"outcome"}, // success, account_not_found, same_account, non_positive_amount, insufficient_balance, internal
	)

	TransferAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accounts_transfer_amount",
			Help:    "Transfer amount distribution",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 100000},
		},
		[]string{"outcome"},
	)

	TransferDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "accounts_transfer_duration_seconds",
			Help:    "Time to execute a transfer, validation to release",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	LockWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "accounts_lock_wait_duration_seconds",
			Help:    "Time spent acquiring the account lock pair",
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
	)

	// Notification metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_notifications_total",
			Help: "Total number of transfer notifications by result",
		},
		[]string{"result"}, // delivered, failed, panicked
	)

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"subject"},
	)

	JournalWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "accounts_journal_write_duration_seconds",
			Help:    "Time to append a notification to the journal",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	// Account metrics
	AccountsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_created_total",
			Help: "Total number of account creation attempts by outcome",
		},
		[]string{"outcome"},
	)

	AccountCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "accounts_account_count",
			Help: "Total number of accounts",
		},
	)
)
