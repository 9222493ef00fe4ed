package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "wikii"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration    *prom.HistogramVec
	buildDuration    prom.Histogram
	stageResults     *prom.CounterVec
	buildOutcome     *prom.CounterVec
	buildConcurrency prom.Gauge
	indexedDocs      prom.Gauge
	searchQueries    *prom.CounterVec
	searchDuration   prom.Histogram
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		buildConcurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "build_concurrency",
			Help:      "Render pool size used by the last build",
		}),
		indexedDocs: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_documents",
			Help:      "Documents in the last written search index",
		}),
		searchQueries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "Search requests by result",
		}, []string{"result"}),
		searchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time spent loading the index and filtering entries",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(
		pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.buildConcurrency, pr.indexedDocs, pr.searchQueries, pr.searchDuration,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetBuildConcurrency(n int) {
	if p == nil {
		return
	}
	p.buildConcurrency.Set(float64(n))
}

func (p *PrometheusRecorder) SetIndexedDocuments(n int) {
	if p == nil {
		return
	}
	p.indexedDocs.Set(float64(n))
}

func (p *PrometheusRecorder) IncSearchQuery(result QueryLabel) {
	if p == nil {
		return
	}
	p.searchQueries.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveSearchDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.searchDuration.Observe(d.Seconds())
}
