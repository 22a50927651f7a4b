package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec
	confirmationWait      *prometheus.HistogramVec

	// Submission Metrics
	submissionsTotal         *prometheus.CounterVec
	submissionDuration       *prometheus.HistogramVec
	holdingAccountsCreated   *prometheus.CounterVec
	airdropLamportsRequested prometheus.Counter

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

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
		confirmationWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_confirmation_wait_seconds",
				Help:    "Time spent waiting for a signature to reach the requested commitment",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
			},
			[]string{"level", "status"},
		),

		// Submission Metrics
		submissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "submissions_total",
				Help: "Total number of transfer and airdrop operations by outcome",
			},
			[]string{"operation", "status", "category"},
		),
		submissionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "submission_duration_seconds",
				Help:    "End-to-end duration of an operation from input to result",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"operation", "status"},
		),
		holdingAccountsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_accounts_created_total",
				Help: "Token transfers that had to create the recipient's token account",
			},
			[]string{"mint"},
		),
		airdropLamportsRequested: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "airdrop_lamports_requested_total",
				Help: "Total lamports requested from the faucet",
			},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 10, 60},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
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

// RecordConfirmationWait records how long a confirmation wait took and how it ended.
func (m *Metrics) RecordConfirmationWait(level, status string, duration float64) {
	m.confirmationWait.WithLabelValues(level, status).Observe(duration)
}

// Submission metric helpers

// RecordSubmission records the final outcome of one operation.
// category is empty for confirmed operations.
func (m *Metrics) RecordSubmission(operation, status, category string, duration float64) {
	m.submissionsTotal.WithLabelValues(operation, status, category).Inc()
	m.submissionDuration.WithLabelValues(operation, status).Observe(duration)
}

// RecordHoldingAccountCreated records a transfer that prepends a token account creation.
func (m *Metrics) RecordHoldingAccountCreated(mint string) {
	m.holdingAccountsCreated.WithLabelValues(mint).Inc()
}

// RecordAirdropRequested records lamports requested from the faucet.
func (m *Metrics) RecordAirdropRequested(lamports uint64) {
	m.airdropLamportsRequested.Add(float64(lamports))
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
