package observability

import (
	"testing"

	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/raywall/fast-data-interface/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStatsd struct{ mock.Mock }

func (m *mockStatsd) Count(name string, value int64, tags []string, rate float64) error {
	return m.Called(name, value, tags, rate).Error(0)
}

func (m *mockStatsd) Gauge(name string, value float64, tags []string, rate float64) error {
	return m.Called(name, value, tags, rate).Error(0)
}

func (m *mockStatsd) Histogram(name string, value float64, tags []string, rate float64) error {
	return m.Called(name, value, tags, rate).Error(0)
}

func TestSetupMetrics(t *testing.T) {
	t.Run("Disabled returns Noop", func(t *testing.T) {
		s, err := SetupMetrics(config.MetricsConf{})
		require.NoError(t, err)
		assert.IsType(t, &NoopProvider{}, s.Provider)
		assert.Nil(t, s.MetricsHandler)
	})

	t.Run("Enabled returns Datadog", func(t *testing.T) {
		s, err := SetupMetrics(config.MetricsConf{
			Datadog: config.DatadogConf{Enabled: true, Addr: "localhost:8125"},
		})
		require.NoError(t, err)
		assert.IsType(t, &DatadogProvider{}, s.Provider)
	})

	t.Run("Prometheus expõe handler", func(t *testing.T) {
		s, err := SetupMetrics(config.MetricsConf{
			Prometheus: config.PrometheusConf{Enabled: true},
		})
		require.NoError(t, err)
		assert.IsType(t, &metrics.PrometheusProvider{}, s.Provider)
		assert.NotNil(t, s.MetricsHandler)
		assert.Equal(t, "/metrics", s.MetricsPath)
	})

	t.Run("Ambos viram Multi", func(t *testing.T) {
		s, err := SetupMetrics(config.MetricsConf{
			Datadog:    config.DatadogConf{Enabled: true, Addr: "localhost:8125"},
			Prometheus: config.PrometheusConf{Enabled: true, Path: "/internal/metrics"},
		})
		require.NoError(t, err)
		assert.IsType(t, metrics.Multi{}, s.Provider)
		assert.Equal(t, "/internal/metrics", s.MetricsPath)
	})
}

func TestDatadogProvider(t *testing.T) {
	client := &mockStatsd{}
	tags := []string{"table:people"}
	client.On("Count", "tableapi.requests", int64(1), tags, 1.0).Return(nil)
	client.On("Gauge", "tableapi.records_returned", 3.0, tags, 1.0).Return(nil)
	client.On("Histogram", "tableapi.latency_ms", 2.5, tags, 1.0).Return(nil)

	p := NewDatadogProvider(client)
	assert.NoError(t, p.Count("tableapi.requests", 1, tags))
	assert.NoError(t, p.Gauge("tableapi.records_returned", 3, tags))
	assert.NoError(t, p.Histogram("tableapi.latency_ms", 2.5, tags))
	client.AssertExpectations(t)
}
