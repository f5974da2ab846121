package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// PrometheusMetricsRecorder counts operations and their latency on its own registry.
type PrometheusMetricsRecorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers the service collectors on reg, or on
// a fresh registry when reg is nil.
func NewPrometheusMetricsRecorder(reg *prometheus.Registry) *PrometheusMetricsRecorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &PrometheusMetricsRecorder{
		registry: reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clonetrack",
			Subsystem: "service",
			Name:      "operations_total",
			Help:      "Service operations by outcome.",
		}, []string{"operation", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clonetrack",
			Subsystem: "service",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation"}),
	}
}

// Registry returns the registry the collectors live on.
func (r *PrometheusMetricsRecorder) Registry() *prometheus.Registry { return r.registry }

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := string(AuditStatusSuccess)
	if !success {
		status = string(AuditStatusError)
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// WriteText dumps the registry in the Prometheus text exposition format.
func (r *PrometheusMetricsRecorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

type multiMetricsRecorder []MetricsRecorder

func (m multiMetricsRecorder) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range m {
		r.Observe(ctx, operation, success, duration)
	}
}

// MultiMetricsRecorder fans observations out to every non-nil recorder.
func MultiMetricsRecorder(recorders ...MetricsRecorder) MetricsRecorder {
	out := make(multiMetricsRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// WorkspaceCollector reports the clone population of every project at
// scrape time.
type WorkspaceCollector struct {
	store   PersistentStore
	clones  *prometheus.Desc
	stored  *prometheus.Desc
	results *prometheus.Desc
}

// NewWorkspaceCollector returns a collector reading from store.
func NewWorkspaceCollector(store PersistentStore) *WorkspaceCollector {
	return &WorkspaceCollector{
		store: store,
		clones: prometheus.NewDesc("clonetrack_workspace_clones",
			"Clones per project.", []string{"project", "kind"}, nil),
		stored: prometheus.NewDesc("clonetrack_workspace_stored_clones",
			"Clones with an assigned storage well.", []string{"project"}, nil),
		results: prometheus.NewDesc("clonetrack_workspace_stage_results",
			"Clones per screening stage and outcome.", []string{"project", "stage", "outcome"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *WorkspaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.clones
	ch <- c.stored
	ch <- c.results
}

// Collect implements prometheus.Collector.
func (c *WorkspaceCollector) Collect(ch chan<- prometheus.Metric) {
	stages := []Stage{StagePCR, StageSequencing, StageGrowth}
	outcomes := []Outcome{OutcomePending, OutcomeSuccess, OutcomeFail}
	for _, p := range c.store.ListProjects() {
		clones := p.Clones()
		stored := 0
		counts := make(map[Stage]map[Outcome]int, len(stages))
		for _, s := range stages {
			counts[s] = make(map[Outcome]int, len(outcomes))
		}
		for _, clone := range clones {
			if clone.Storage != nil {
				stored++
			}
			for _, s := range stages {
				counts[s][clone.Outcome(s).Normalize()]++
			}
		}
		ch <- prometheus.MustNewConstMetric(c.clones, prometheus.GaugeValue, float64(len(clones)), p.Name, string(p.Kind))
		ch <- prometheus.MustNewConstMetric(c.stored, prometheus.GaugeValue, float64(stored), p.Name)
		for _, s := range stages {
			for _, o := range outcomes {
				ch <- prometheus.MustNewConstMetric(c.results, prometheus.GaugeValue, float64(counts[s][o]), p.Name, string(s), string(o))
			}
		}
	}
}
