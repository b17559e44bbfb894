// Package metrics provides Prometheus metrics for the publishing pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricsNamespace is the namespace for all pipeline metrics.
	MetricsNamespace = "autopost"

	// MetricsSubsystem is the subsystem for pipeline metrics.
	MetricsSubsystem = "pipeline"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	CyclesTotal          *prometheus.CounterVec
	CycleDurationSeconds prometheus.Histogram

	GenerationFallbacks prometheus.Counter
	PublishFailures     prometheus.Counter
	BroadcastsSent      prometheus.Counter
	BroadcastFailures   prometheus.Counter
	CTAInjections       *prometheus.CounterVec
	DuplicatesSkipped   *prometheus.CounterVec
}

// NewMetrics creates and registers all pipeline metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "cycles_total",
				Help:      "Total number of publishing cycles by outcome",
			},
			[]string{"status"}, // success, partial, failed
		),
		CycleDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of a full publishing cycle in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4min
			},
		),
		GenerationFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "generation_fallbacks_total",
				Help:      "Total number of cycles that used emergency fallback content",
			},
		),
		PublishFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "publish_failures_total",
				Help:      "Total number of failed WordPress publishes",
			},
		),
		BroadcastsSent: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "broadcasts_sent_total",
				Help:      "Total number of email broadcasts sent",
			},
		),
		BroadcastFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "broadcast_failures_total",
				Help:      "Total number of failed email broadcasts",
			},
		),
		CTAInjections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "cta_injections_total",
				Help:      "Total number of CTA injections by content type",
			},
			[]string{"content_type"}, // blog, email
		),
		DuplicatesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: MetricsSubsystem,
				Name:      "duplicates_skipped_total",
				Help:      "Total number of duplicate topics or CTAs skipped",
			},
			[]string{"kind"}, // topic, cta
		),
	}
}

// RecordCycle records a completed cycle with its outcome and duration.
func (m *Metrics) RecordCycle(status string, durationSeconds float64) {
	m.CyclesTotal.WithLabelValues(status).Inc()
	m.CycleDurationSeconds.Observe(durationSeconds)
}

// RecordCTAInjection records a CTA injected into a piece of content.
func (m *Metrics) RecordCTAInjection(contentType string) {
	m.CTAInjections.WithLabelValues(contentType).Inc()
}

// RecordDuplicateSkipped records a duplicate topic or CTA being skipped.
func (m *Metrics) RecordDuplicateSkipped(kind string) {
	m.DuplicatesSkipped.WithLabelValues(kind).Inc()
}
