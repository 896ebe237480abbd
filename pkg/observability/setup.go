package observability

import (
	"fmt"
	"net/http"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/raywall/fast-data-interface/pkg/config"
	"github.com/raywall/fast-data-interface/pkg/metrics"
)

// NoopProvider é um placeholder para quando métricas estão desabilitadas.
type NoopProvider struct{}

func (n *NoopProvider) Count(name string, value float64, tags []string) error     { return nil }
func (n *NoopProvider) Gauge(name string, value float64, tags []string) error     { return nil }
func (n *NoopProvider) Histogram(name string, value float64, tags []string) error { return nil }

// StatsdClient é o subconjunto do cliente statsd usado pelo provider.
type StatsdClient interface {
	Count(name string, value int64, tags []string, rate float64) error
	Gauge(name string, value float64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
}

// DatadogProvider adapta a lib oficial do Datadog para nossa interface.
type DatadogProvider struct {
	client StatsdClient
}

func NewDatadogProvider(client StatsdClient) *DatadogProvider {
	return &DatadogProvider{client: client}
}

func (d *DatadogProvider) Count(name string, value float64, tags []string) error {
	return d.client.Count(name, int64(value), tags, 1)
}

func (d *DatadogProvider) Gauge(name string, value float64, tags []string) error {
	return d.client.Gauge(name, value, tags, 1)
}

func (d *DatadogProvider) Histogram(name string, value float64, tags []string) error {
	return d.client.Histogram(name, value, tags, 1)
}

// Setup é o resultado da inicialização de métricas: o provider a usar e,
// quando Prometheus está habilitado, o handler de exposição.
type Setup struct {
	Provider       metrics.Provider
	MetricsHandler http.Handler
	MetricsPath    string
}

// SetupMetrics inicializa os provedores habilitados na configuração.
func SetupMetrics(cfg config.MetricsConf) (*Setup, error) {
	var providers metrics.Multi
	out := &Setup{}

	if cfg.Datadog.Enabled {
		client, err := statsd.New(cfg.Datadog.Addr, statsd.WithNamespace(cfg.Datadog.Namespace))
		if err != nil {
			return nil, fmt.Errorf("falha ao conectar no datadog statsd: %w", err)
		}
		providers = append(providers, NewDatadogProvider(client))
	}

	if cfg.Prometheus.Enabled {
		prom := metrics.NewPrometheusProvider(cfg.Prometheus.Namespace)
		providers = append(providers, prom)
		out.MetricsHandler = prom.Handler()
		out.MetricsPath = cfg.Prometheus.Path
		if out.MetricsPath == "" {
			out.MetricsPath = "/metrics"
		}
	}

	switch len(providers) {
	case 0:
		out.Provider = &NoopProvider{}
	case 1:
		out.Provider = providers[0]
	default:
		out.Provider = providers
	}
	return out, nil
}
