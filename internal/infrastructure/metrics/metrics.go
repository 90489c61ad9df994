package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Wallet operation metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationAmount   *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	CommissionTotal   prometheus.Counter

	// Wallet metrics
	WalletsCreated prometheus.Counter
	WalletBlocks   *prometheus.CounterVec

	// Identity metrics
	IdentityChanges *prometheus.CounterVec

	// Profile shadow metrics
	ProfileSyncFailures prometheus.Counter
	ProfileDrift        prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge
	HTTPRetries  *prometheus.CounterVec

	// Redis metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	RedisErrors *prometheus.CounterVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		// Wallet operation metrics
		Operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digipay_operations_total",
				Help: "Total wallet operations by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		OperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "digipay_operation_duration_seconds",
				Help:    "Duration of wallet operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		OperationAmount: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "digipay_operation_amount",
				Help:    "Amounts moved by completed operations",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"type"},
		),
		OperationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digipay_operation_errors_total",
				Help: "Total failed operations by error kind",
			},
			[]string{"type", "kind"},
		),
		CommissionTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "digipay_commission_total",
			Help: "Sum of agent commission credited",
		}),

		// Wallet metrics
		WalletsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "digipay_wallets_created_total",
			Help: "Total number of wallets created",
		}),
		WalletBlocks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digipay_wallet_block_changes_total",
				Help: "Wallet block state changes",
			},
			[]string{"blocked"},
		),

		// Identity metrics
		IdentityChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digipay_identity_changes_total",
				Help: "Administrative identity changes by action",
			},
			[]string{"action"},
		),

		// Profile shadow metrics
		ProfileSyncFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "digipay_profile_sync_failures_total",
			Help: "Best-effort profile balance syncs that failed",
		}),
		ProfileDrift: f.NewGauge(prometheus.GaugeOpts{
			Name: "digipay_profile_drift",
			Help: "Profiles out of sync at the last reconciliation",
		}),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digipay_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "digipay_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "digipay_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		HTTPRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digipay_http_retries_total",
				Help: "Operations retried after a storage conflict",
			},
			[]string{"operation"},
		),

		// Redis metrics
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "digipay_wallet_cache_hits_total",
			Help: "Wallet cache hits",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "digipay_wallet_cache_misses_total",
			Help: "Wallet cache misses",
		}),
		RedisErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digipay_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Authentication metrics
		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digipay_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Name: "digipay_rate_limit_hits_total",
			Help: "Total rate limit hits",
		}),

		// Audit metrics
		AuditLogsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "digipay_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
