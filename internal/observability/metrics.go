package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for zone analysis.
type Metrics struct {
	// Analysis metrics.
	AnalysisRequests   *prometheus.CounterVec   // labels: source={satellite,photos}, outcome={success,error,stale}
	AnalysisDuration   *prometheus.HistogramVec // labels: source={satellite,photos}
	ExtractedResidence prometheus.Histogram
	StaleResults       prometheus.Counter
	EstimatesComputed  prometheus.Counter

	// Imagery metrics.
	ImageryRequests    *prometheus.CounterVec // labels: outcome={success,error}
	ImageryCache       *prometheus.CounterVec // labels: result={hit,miss}
	ImageryAPIDuration prometheus.Histogram

	// Notification metrics.
	NotificationsPublished prometheus.Counter
	NotificationErrors     prometheus.Counter
	NotificationsEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.AnalysisRequests,
		m.AnalysisDuration,
		m.ExtractedResidence,
		m.StaleResults,
		m.EstimatesComputed,
		m.ImageryRequests,
		m.ImageryCache,
		m.ImageryAPIDuration,
		m.NotificationsPublished,
		m.NotificationErrors,
		m.NotificationsEnabled,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AnalysisRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk_zone",
			Name:      "analysis_requests_total",
			Help:      "Zone analyses by source and outcome.",
		}, []string{"source", "outcome"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "risk_zone",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete zone analysis, collaborators included.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		ExtractedResidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk_zone",
			Name:      "extracted_residences",
			Help:      "Residence counts produced by zone analyses.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_zone",
			Name:      "stale_results_total",
			Help:      "Analysis results dropped because a newer request superseded them.",
		}),
		EstimatesComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_zone",
			Name:      "estimates_computed_total",
			Help:      "Financial estimates served.",
		}),
		ImageryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk_zone",
			Name:      "imagery_requests_total",
			Help:      "Imagery export requests by outcome.",
		}, []string{"outcome"}),
		ImageryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "risk_zone",
			Name:      "imagery_cache_total",
			Help:      "Imagery cache lookups by result.",
		}, []string{"result"}),
		ImageryAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "risk_zone",
			Name:      "imagery_api_duration_seconds",
			Help:      "Imagery export request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		NotificationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_zone",
			Name:      "notifications_published_total",
			Help:      "Zone notifications written to the notification topic.",
		}),
		NotificationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "risk_zone",
			Name:      "notification_errors_total",
			Help:      "Zone notifications that failed to publish.",
		}),
		NotificationsEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "risk_zone",
			Name:      "notifications_enabled",
			Help:      "1 when zone notifications are published, 0 otherwise.",
		}),
	}
}
