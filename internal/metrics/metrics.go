// Package metrics defines the Prometheus metrics of the research pipeline.
// The CLI is short-lived, so metrics are written to a node_exporter textfile
// instead of being scraped.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used as the "outcome" label of RunsTotal.
const (
	OutcomeApproved      = "approved"
	OutcomeRevisionLimit = "revision_limit"
	OutcomeFailed        = "failed"
)

// Metrics holds Prometheus metrics for pipeline observability.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec   // Runs by terminal outcome
	StageDuration      *prometheus.HistogramVec // Stage latency by stage
	StageErrorsTotal   *prometheus.CounterVec   // Failed stages by stage
	RevisionCycles     prometheus.Histogram     // Revision cycles per completed run
	SourcesPerRun      prometheus.Histogram     // Snippets collected per run
	GenerationRequests *prometheus.CounterVec   // Generation calls by provider and outcome
	GenerationTokens   *prometheus.CounterVec   // Tokens by provider and direction
}

// NewMetrics creates the pipeline metrics and registers them with reg.
// The registerer parameter allows flexible registration (e.g., global registry, test registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researchlab_runs_total",
			Help: "Total number of research runs by terminal outcome",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "researchlab_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		StageErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researchlab_stage_errors_total",
			Help: "Total number of failed pipeline stages",
		}, []string{"stage"}),
		RevisionCycles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "researchlab_revision_cycles",
			Help:    "Revision cycles performed per completed run",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		}),
		SourcesPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "researchlab_sources_per_run",
			Help:    "Source snippets collected per run",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
		GenerationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researchlab_generation_requests_total",
			Help: "Total number of text-generation requests",
		}, []string{"provider", "outcome"}),
		GenerationTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "researchlab_generation_tokens_total",
			Help: "Total number of tokens reported by the generation provider",
		}, []string{"provider", "direction"}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.StageDuration,
		m.StageErrorsTotal,
		m.RevisionCycles,
		m.SourcesPerRun,
		m.GenerationRequests,
		m.GenerationTokens,
	)
	return m
}

// ObserveGeneration records one generation call.
func (m *Metrics) ObserveGeneration(provider string, inputTokens, outputTokens int, err error) {
	if err != nil {
		m.GenerationRequests.WithLabelValues(provider, "error").Inc()
		return
	}
	m.GenerationRequests.WithLabelValues(provider, "success").Inc()
	m.GenerationTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	m.GenerationTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
}

// WriteTextfile writes everything g gathers to path in the Prometheus text
// format. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
