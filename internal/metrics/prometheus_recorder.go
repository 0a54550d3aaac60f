package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry         *prom.Registry
	stageDuration    *prom.HistogramVec
	generateDuration prom.Histogram
	outcomes         *prom.CounterVec
	contents         *prom.CounterVec
	fileErrors       *prom.CounterVec
	workers          prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "jasg",
			Name:      "file_stage_duration_seconds",
			Help:      "Duration of per-file processing stages",
			Buckets:   prom.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
		generateDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "jasg",
			Name:      "generate_duration_seconds",
			Help:      "Total site generation duration",
			Buckets:   prom.DefBuckets,
		}),
		outcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "jasg",
			Name:      "generate_outcomes_total",
			Help:      "Generation runs by outcome",
		}, []string{"result"}),
		contents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "jasg",
			Name:      "content_items_total",
			Help:      "Content items added to generated sites, by kind",
		}, []string{"kind"}),
		fileErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "jasg",
			Name:      "file_errors_total",
			Help:      "Per-file failures by stage",
		}, []string{"stage"}),
		workers: prom.NewGauge(prom.GaugeOpts{
			Namespace: "jasg",
			Name:      "generate_workers",
			Help:      "Worker count used by the last generation run",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.generateDuration, pr.outcomes, pr.contents, pr.fileErrors, pr.workers)
	return pr
}

// Registry returns the registry the collectors live on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

// WriteTextfile writes all registered metrics in the node-exporter textfile format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveGenerateDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.generateDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncGenerateOutcome(result ResultLabel) {
	if p == nil {
		return
	}
	p.outcomes.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncContent(kind string) {
	if p == nil {
		return
	}
	p.contents.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncFileError(stage string) {
	if p == nil {
		return
	}
	p.fileErrors.WithLabelValues(stage).Inc()
}

func (p *PrometheusRecorder) SetWorkers(n int) {
	if p == nil {
		return
	}
	p.workers.Set(float64(n))
}
