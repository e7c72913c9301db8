package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	registry       *prom.Registry
	deployDuration *prom.HistogramVec
	deployResults  *prom.CounterVec
	stagedVersions prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.deployDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pipedocs",
			Name:      "deploy_duration_seconds",
			Help:      "Duration of individual version deployments",
			Buckets:   prom.DefBuckets,
		}, []string{"version"})
		pr.deployResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pipedocs",
			Name:      "deploy_results_total",
			Help:      "Version deployment outcomes",
		}, []string{"result"})
		pr.stagedVersions = prom.NewGauge(prom.GaugeOpts{
			Namespace: "pipedocs",
			Name:      "staged_versions",
			Help:      "Number of versions staged on the publish branch",
		})
		reg.MustRegister(pr.deployDuration, pr.deployResults, pr.stagedVersions)
	})
	return pr
}

func (pr *PrometheusRecorder) ObserveDeployDuration(version string, d time.Duration) {
	pr.deployDuration.WithLabelValues(version).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncDeployResult(result ResultLabel) {
	pr.deployResults.WithLabelValues(string(result)).Inc()
}

func (pr *PrometheusRecorder) SetStagedVersions(n int) {
	pr.stagedVersions.Set(float64(n))
}

// Handler returns the HTTP handler exposing the recorder's registry.
func (pr *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{})
}
