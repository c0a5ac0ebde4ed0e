// File: internal/observability/metrics.go
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's prometheus collectors on a private registry, so
// several pipelines (and tests) never collide on the default registerer.
type Metrics struct {
	Registry *prometheus.Registry

	FindingsProcessed prometheus.Counter
	TierMatches       *prometheus.CounterVec
	AIRequests        *prometheus.CounterVec
	FinancialExposure prometheus.Counter
	RuleReloads       *prometheus.CounterVec
	AnalysisDuration  prometheus.Histogram
}

// NewMetrics registers every collector under namespace on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		FindingsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_processed_total",
			Help:      "Total vulnerability findings run through the pipeline",
		}),
		TierMatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_matches_total",
			Help:      "Asset mapping outcomes by tier",
		}, []string{"tier"}),
		AIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_match_requests_total",
			Help:      "AI fallback requests by outcome",
		}, []string{"outcome"}),
		FinancialExposure: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "financial_exposure_dollars_total",
			Help:      "Sum of the total financial exposure of every generated ticket",
		}),
		RuleReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_reloads_total",
			Help:      "Asset mapping rule reloads by result",
		}, []string{"result"}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall-clock duration of a full pipeline run",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}),
	}
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
