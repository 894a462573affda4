package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for a preflight run.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// Balance Metrics
	nativeBalance      *prometheus.GaugeVec
	tokenBalance       *prometheus.GaugeVec
	tokenLookupsTotal  *prometheus.CounterVec
	requirementsMet    prometheus.Gauge
	verdictTotal       *prometheus.CounterVec
	lastCheckTimestamp prometheus.Gauge

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// Balance Metrics
		nativeBalance: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "preflight_native_balance_lamports",
				Help: "Native balance observed for an account, in lamports",
			},
			[]string{"role", "address"},
		),
		tokenBalance: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "preflight_token_balance_units",
				Help: "Token balance observed for an account, in base units",
			},
			[]string{"role", "mint"},
		),
		tokenLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preflight_token_lookups_total",
				Help: "Token account lookups by outcome (found, missing, error, malformed)",
			},
			[]string{"role", "outcome"},
		),
		requirementsMet: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "preflight_requirements_met",
				Help: "1 if the sender met the demo requirements on the last check, 0 otherwise",
			},
		),
		verdictTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preflight_verdicts_total",
				Help: "Total number of requirement checks by verdict",
			},
			[]string{"verdict"},
		),
		lastCheckTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "preflight_last_check_timestamp_seconds",
				Help: "Unix time of the last completed check",
			},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of messages published to NATS",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// Balance metric helpers

// RecordNativeBalance records the lamports held by an account.
func (m *Metrics) RecordNativeBalance(role, address string, lamports uint64) {
	m.nativeBalance.WithLabelValues(role, address).Set(float64(lamports))
}

// RecordTokenLookup records the outcome of a token account lookup. amount is
// only recorded for the "found" outcome.
func (m *Metrics) RecordTokenLookup(role, mint, outcome string, amount uint64) {
	m.tokenLookupsTotal.WithLabelValues(role, outcome).Inc()
	if outcome == "found" {
		m.tokenBalance.WithLabelValues(role, mint).Set(float64(amount))
	}
}

// RecordVerdict records the result of a requirements check.
func (m *Metrics) RecordVerdict(verdict string, met bool) {
	m.verdictTotal.WithLabelValues(verdict).Inc()
	if met {
		m.requirementsMet.Set(1)
	} else {
		m.requirementsMet.Set(0)
	}
	m.lastCheckTimestamp.Set(float64(time.Now().Unix()))
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// WriteTextfile writes everything in g to path in the Prometheus text
// format, for pickup by the node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
