package prometheus_test

import (
	"testing"

	"github.com/6amape9I/parallel--funetun/pkg/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeMetrics(t *testing.T) {
	counter, latency := prometheus.MakeMetrics("orchestrator_test", "api")
	counter.With("method", "status").Add(2)
	latency.With("method", "status").Observe(0.25)

	families, err := stdprometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, f := range families {
		switch f.GetName() {
		case "orchestrator_test_api_request_count":
			found[f.GetName()] = true
			assert.InDelta(t, 2, f.GetMetric()[0].GetCounter().GetValue(), 0.001)
		case "orchestrator_test_api_request_latency_seconds":
			found[f.GetName()] = true
			assert.Equal(t, uint64(1), f.GetMetric()[0].GetSummary().GetSampleCount())
		}
	}
	assert.Len(t, found, 2)
}
