package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ClaimsVerified     *prometheus.CounterVec
	TokensIssued       prometheus.Counter
	BadgesMinted       prometheus.Counter
	MintRejections     *prometheus.CounterVec
	RateLimitExceeded  prometheus.Counter
	VisionLatency      prometheus.Histogram
	VisionFailures     prometheus.Counter
	CompositeScore     prometheus.Histogram
	EndpointLatency    *prometheus.HistogramVec
	EventsCreated      prometheus.Counter
	IssuanceFailures   prometheus.Counter
	AuditProofFailures prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ClaimsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "eventlens_claims_verified_total",
			Help: "Total verification attempts, labeled by outcome (eligible, ineligible, rejected)",
		}, []string{"outcome"}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventlens_capability_tokens_issued_total",
			Help: "Total capability tokens issued",
		}),
		BadgesMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventlens_badges_minted_total",
			Help: "Total badges minted through the issuance backend",
		}),
		MintRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "eventlens_mint_rejections_total",
			Help: "Total mint attempts rejected before issuance, labeled by internal reason",
		}, []string{"reason"}),
		RateLimitExceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventlens_rate_limit_exceeded_total",
			Help: "Total requests rejected by the rate governor",
		}),
		VisionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventlens_vision_latency_seconds",
			Help:    "Latency of vision judgment calls in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		VisionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventlens_vision_failures_total",
			Help: "Vision judgment calls that failed closed to zero confidence",
		}),
		CompositeScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventlens_composite_score",
			Help:    "Distribution of final composite confidence scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventlens_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		EventsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventlens_events_created_total",
			Help: "Total events registered",
		}),
		IssuanceFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventlens_issuance_failures_total",
			Help: "External ledger issuance failures at mint time",
		}),
		AuditProofFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "eventlens_audit_proof_failures_total",
			Help: "Best-effort audit proof recordings that failed (non-fatal)",
		}),
	}
}

// ObserveEndpointLatency records the latency for a given endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordVerification counts one verification attempt with its outcome label.
func (m *Metrics) RecordVerification(outcome string) {
	m.ClaimsVerified.WithLabelValues(outcome).Inc()
}

// RecordMintRejection counts one rejected mint with the internal reason label.
func (m *Metrics) RecordMintRejection(reason string) {
	m.MintRejections.WithLabelValues(reason).Inc()
}
