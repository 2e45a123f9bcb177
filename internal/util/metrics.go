package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_transactions_recorded_total",
		Help: "Total number of transactions recorded at checkout",
	})

	TransactionsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_transactions_failed_total",
		Help: "Total number of rejected checkout attempts",
	}, []string{"reason"})

	TransactionsRefundedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_transactions_refunded_total",
		Help: "Total number of refunded transactions",
	})

	DailyClosingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_daily_closings_total",
		Help: "Total number of completed daily closings",
	})

	DailyClosingsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_daily_closings_rejected_total",
		Help: "Total number of closing attempts on an already-closed day",
	})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_checkout_latency_seconds",
		Help:    "Latency of checkout persistence",
		Buckets: prometheus.DefBuckets,
	})

	MenuCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_menu_cache_hits_total",
		Help: "Total number of menu reads served from cache",
	})

	MenuCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_menu_cache_misses_total",
		Help: "Total number of menu reads composed from the database",
	})

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
