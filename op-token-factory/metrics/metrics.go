package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	opmetrics "github.com/mantlenetworkio/mantle-token-factory/op-service/metrics"
	tokenfactory "github.com/mantlenetworkio/mantle-token-factory/op-token-factory/factory"
)

const Namespace = "op_token_factory"

type Metrics struct {
	ns       string
	registry *prometheus.Registry

	createCalls    *prometheus.CounterVec
	createDuration *prometheus.HistogramVec

	indexedDeployments prometheus.Counter
	indexerHead        prometheus.Gauge

	info *prometheus.GaugeVec
	up   prometheus.Gauge
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics(procName string) *Metrics {
	return newMetrics(procName, opmetrics.NewRegistry())
}

func newMetrics(procName string, registry *prometheus.Registry) *Metrics {
	if procName == "" {
		procName = "default"
	}
	ns := Namespace + "_" + procName
	factory := promauto.With(registry)

	return &Metrics{
		ns:       ns,
		registry: registry,

		info: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "info",
			Help:      "Pseudo-metric tracking version and config info",
		}, []string{
			"version",
		}),
		up: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "up",
			Help:      "1 if op-token-factory has finished starting up",
		}),
		createCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "create_calls_total",
			Help:      "Count of token create calls by entry point and result",
		}, []string{"entrypoint", "result"}),
		createDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "create_duration_seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
			Help:      "Duration of token create calls",
		}, []string{"entrypoint"}),
		indexedDeployments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "indexed_deployments_total",
			Help:      "Count of deployments written to the index",
		}),
		indexerHead: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "indexer_head",
			Help:      "Last block number processed by the deployment indexer",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordInfo sets a pseudo-metric that contains versioning and config info.
func (m *Metrics) RecordInfo(version string) {
	m.info.WithLabelValues(version).Set(1)
}

// RecordUp sets the up metric to 1.
func (m *Metrics) RecordUp() {
	m.up.Set(1)
}

func (m *Metrics) RecordCreate(entrypoint string) (onDone func(err error)) {
	timer := prometheus.NewTimer(m.createDuration.WithLabelValues(entrypoint))
	return func(err error) {
		timer.ObserveDuration()
		result := "success"
		switch {
		case errors.Is(err, tokenfactory.ErrInvalidArgument):
			result = "invalid_argument"
		case err != nil:
			result = "failed"
		}
		m.createCalls.WithLabelValues(entrypoint, result).Inc()
	}
}

func (m *Metrics) RecordIndexedDeployments(n int) {
	m.indexedDeployments.Add(float64(n))
}

func (m *Metrics) RecordIndexerHead(head uint64) {
	m.indexerHead.Set(float64(head))
}
