package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Recorder is the metrics surface the services record against.
type Recorder interface {
	// Disclosure protocol
	RecordPartialKeyRequest(result string) // created, replayed, revoked, error
	RecordProofSubmission(result string, duration time.Duration)
	RecordGrantRevoked()

	// Signed URL issuance
	RecordPresign(success bool, duration time.Duration)
	RecordAssetURLIssued(kind string)

	// HTTP layer (used by the middleware)
	RecordHTTPRequest(method, path, status string, duration time.Duration)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Disclosure Protocol Metrics
	PartialKeyRequestsTotal *prometheus.CounterVec
	ProofSubmissionsTotal   *prometheus.CounterVec
	ProofSubmissionDuration prometheus.Histogram
	GrantsRevokedTotal      prometheus.Counter

	// Signed URL Metrics
	PresignTotal        *prometheus.CounterVec
	PresignDuration     prometheus.Histogram
	AssetURLIssuedTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		PartialKeyRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_partial_key_requests_total",
				Help: "Total number of partial key disclosure requests",
			},
			[]string{"result"}, // created, replayed, revoked, error
		),
		ProofSubmissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_proof_submissions_total",
				Help: "Total number of proof-of-possession submissions",
			},
			[]string{"result"}, // verified, already_verified, mismatch, rate_limited, revoked, not_found, error
		),
		ProofSubmissionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gate_proof_submission_duration_seconds",
				Help:    "Time taken to verify a proof submission",
				Buckets: prometheus.DefBuckets,
			},
		),
		GrantsRevokedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gate_grants_revoked_total",
				Help: "Total number of access grants revoked",
			},
		),

		PresignTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_presign_total",
				Help: "Total number of object-store presign attempts",
			},
			[]string{"result"}, // success, error
		),
		PresignDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gate_presign_duration_seconds",
				Help:    "Time taken to produce a presigned URL",
				Buckets: prometheus.DefBuckets,
			},
		),
		AssetURLIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_asset_urls_issued_total",
				Help: "Total number of signed asset URLs issued",
			},
			[]string{"kind"}, // video, document
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of in-flight HTTP requests",
			},
		),
	}
}

// RecordPartialKeyRequest records a partial key disclosure request
func (m *Metrics) RecordPartialKeyRequest(result string) {
	m.PartialKeyRequestsTotal.WithLabelValues(result).Inc()
}

// RecordProofSubmission records a proof verification outcome
func (m *Metrics) RecordProofSubmission(result string, duration time.Duration) {
	m.ProofSubmissionsTotal.WithLabelValues(result).Inc()
	m.ProofSubmissionDuration.Observe(duration.Seconds())
}

// RecordGrantRevoked records a grant revocation
func (m *Metrics) RecordGrantRevoked() {
	m.GrantsRevokedTotal.Inc()
}

// RecordPresign records a presign attempt
func (m *Metrics) RecordPresign(success bool, duration time.Duration) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.PresignTotal.WithLabelValues(result).Inc()
	m.PresignDuration.Observe(duration.Seconds())
}

// RecordAssetURLIssued records a signed URL handed to a client
func (m *Metrics) RecordAssetURLIssued(kind string) {
	m.AssetURLIssuedTotal.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
