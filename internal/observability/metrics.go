// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	TradesSubmitted prometheus.Counter
	TradesSettled   *prometheus.CounterVec
	TradesCancelled prometheus.Counter
	SubmitRejected  *prometheus.CounterVec

	// Quote metrics
	QuotesComputed prometheus.Counter
	QuotesRejected *prometheus.CounterVec

	// Pool observer metrics
	PoolStatesRecorded prometheus.Counter
	PriceLookups       *prometheus.CounterVec

	// Latency metrics
	OperationLatency *prometheus.HistogramVec
	RPCCallLatency   *prometheus.HistogramVec

	// Database metrics
	DBQueryErrors *prometheus.CounterVec

	// Health metrics
	LastSnapshotRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "paper_trader"
	}

	return &Metrics{
		TradesSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_submitted_total",
			Help:      "Total number of trades submitted",
		}),
		TradesSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_settled_total",
			Help:      "Total number of trades settled by terminal status",
		}, []string{"status"}),
		TradesCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "trades_cancelled_total",
			Help:      "Total number of trades cancelled",
		}),
		SubmitRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "submit_rejected_total",
			Help:      "Total number of trade submissions rejected by reason",
		}, []string{"reason"}),

		QuotesComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "quotes_computed_total",
			Help:      "Total number of quotes computed",
		}),
		QuotesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quote",
			Name:      "quotes_rejected_total",
			Help:      "Total number of quote requests rejected by reason",
		}, []string{"reason"}),

		PoolStatesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poolwatch",
			Name:      "pool_states_recorded_total",
			Help:      "Total number of pool state snapshots recorded",
		}),
		PriceLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "lookups_total",
			Help:      "Total number of price lookups by source and status",
		}, []string{"source", "status"}),

		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_latency_seconds",
			Help:      "Engine operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSnapshotRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_snapshot_run_timestamp",
			Help:      "Unix timestamp of last portfolio snapshot run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTradeSubmitted increments the trades submitted counter.
func RecordTradeSubmitted() {
	DefaultMetrics.TradesSubmitted.Inc()
}

// RecordTradeSettled increments the settled counter for a terminal status.
func RecordTradeSettled(status string) {
	DefaultMetrics.TradesSettled.WithLabelValues(status).Inc()
}

// RecordTradeCancelled increments the trades cancelled counter.
func RecordTradeCancelled() {
	DefaultMetrics.TradesCancelled.Inc()
}

// RecordSubmitRejected increments the submit rejection counter.
func RecordSubmitRejected(reason string) {
	DefaultMetrics.SubmitRejected.WithLabelValues(reason).Inc()
}

// RecordQuoteComputed increments the quotes computed counter.
func RecordQuoteComputed() {
	DefaultMetrics.QuotesComputed.Inc()
}

// RecordQuoteRejected increments the quote rejection counter.
func RecordQuoteRejected(reason string) {
	DefaultMetrics.QuotesRejected.WithLabelValues(reason).Inc()
}

// RecordPoolStateRecorded increments the pool states recorded counter.
func RecordPoolStateRecorded() {
	DefaultMetrics.PoolStatesRecorded.Inc()
}

// RecordPriceLookup increments the price lookup counter.
func RecordPriceLookup(source, status string) {
	DefaultMetrics.PriceLookups.WithLabelValues(source, status).Inc()
}

// RecordSnapshotRun stamps the last snapshot run gauge.
func RecordSnapshotRun() {
	DefaultMetrics.LastSnapshotRun.SetToCurrentTime()
}
