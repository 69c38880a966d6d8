package metrics

import (
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	gocl "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// Checker is a gathered snapshot of a registry, for assertions in tests.
type Checker struct {
	t        require.TestingT
	families map[string]*gocl.MetricFamily
}

func NewMetricChecker(t require.TestingT, reg prometheus.Gatherer) *Checker {
	families, err := reg.Gather()
	require.NoError(t, err, "must gather metrics")
	byName := make(map[string]*gocl.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return &Checker{t: t, families: byName}
}

// Metric returns the one metric of the named family carrying all the given labels.
// The test fails if there is no such metric, or more than one.
func (c *Checker) Metric(name string, labels map[string]string) *gocl.Metric {
	fam, ok := c.families[name]
	require.True(c.t, ok, "no metric family %q", name)
	var found *gocl.Metric
	for _, m := range fam.GetMetric() {
		if !matchLabels(m, labels) {
			continue
		}
		require.Nil(c.t, found, "labels %v match more than one %q metric", labels, name)
		found = m
	}
	require.NotNil(c.t, found, "no %q metric with labels %v", name, labels)
	return found
}

// Value reads a counter or gauge.
func (c *Checker) Value(name string, labels map[string]string) float64 {
	m := c.Metric(name, labels)
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	}
	require.Fail(c.t, "metric is neither a counter nor a gauge", name)
	return 0
}

func (c *Checker) SampleCount(name string, labels map[string]string) uint64 {
	m := c.Metric(name, labels)
	require.NotNil(c.t, m.Histogram, "%q is not a histogram", name)
	return m.Histogram.GetSampleCount()
}

// Dump renders the snapshot as indented JSON for debugging.
func (c *Checker) Dump() string {
	out, _ := json.MarshalIndent(c.families, "", "  ")
	return string(out)
}

func matchLabels(m *gocl.Metric, labels map[string]string) bool {
	have := make(map[string]string, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		have[l.GetName()] = l.GetValue()
	}
	for k, v := range labels {
		if got, ok := have[k]; !ok || got != v {
			return false
		}
	}
	return true
}
