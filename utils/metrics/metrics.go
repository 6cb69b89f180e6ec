package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

type DexMetrics struct {
	Quotes       *prometheus.CounterVec
	QuoteLatency *prometheus.HistogramVec
	Submissions  *prometheus.CounterVec
	Events       *prometheus.CounterVec
	DeploySteps  *prometheus.CounterVec
	PollLag      prometheus.Gauge
}

// NewDexMetrics registers the client metrics on reg
func NewDexMetrics(namespace string, reg prometheus.Registerer) *DexMetrics {
	factory := promauto.With(reg)

	return &DexMetrics{
		Quotes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Total number of quotes computed, by source and result",
		}, []string{"source", "result"}),
		QuoteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_latency_seconds",
			Help:      "Time taken to compute a quote",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"source"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Total number of swap/deposit/withdraw submissions, by flow and result",
		}, []string{"flow", "result"}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of DEX events observed",
		}, []string{"event"}),
		DeploySteps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deploy_steps_total",
			Help:      "Deployment steps completed, by step",
		}, []string{"step"}),
		PollLag: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watch_block_lag",
			Help:      "Blocks between chain head and the last polled block",
		}),
	}
}

// Result labels a flow outcome
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
