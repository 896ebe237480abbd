package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusProvider registra coletores sob demanda num registry próprio.
// O conjunto de chaves de tag de um nome é fixado no primeiro uso.
type PrometheusProvider struct {
	namespace string
	registry  *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPrometheusProvider(namespace string) *PrometheusProvider {
	return &PrometheusProvider{
		namespace:  namespace,
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Handler expõe o registry no formato de exposição do Prometheus.
func (p *PrometheusProvider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry é usado em testes para inspecionar os coletores.
func (p *PrometheusProvider) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusProvider) Count(name string, value float64, tags []string) error {
	keys, values := splitTags(tags)
	p.mu.Lock()
	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      sanitize(name) + "_total",
			Help:      name,
		}, keys)
		if err := p.registry.Register(vec); err != nil {
			p.mu.Unlock()
			return fmt.Errorf("prometheus: %s: %w", name, err)
		}
		p.counters[name] = vec
	}
	p.mu.Unlock()

	c, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return fmt.Errorf("prometheus: %s: %w", name, err)
	}
	c.Add(value)
	return nil
}

func (p *PrometheusProvider) Gauge(name string, value float64, tags []string) error {
	keys, values := splitTags(tags)
	p.mu.Lock()
	vec, ok := p.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      sanitize(name),
			Help:      name,
		}, keys)
		if err := p.registry.Register(vec); err != nil {
			p.mu.Unlock()
			return fmt.Errorf("prometheus: %s: %w", name, err)
		}
		p.gauges[name] = vec
	}
	p.mu.Unlock()

	g, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return fmt.Errorf("prometheus: %s: %w", name, err)
	}
	g.Set(value)
	return nil
}

func (p *PrometheusProvider) Histogram(name string, value float64, tags []string) error {
	keys, values := splitTags(tags)
	p.mu.Lock()
	vec, ok := p.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      sanitize(name),
			Help:      name,
			Buckets:   prometheus.DefBuckets,
		}, keys)
		if err := p.registry.Register(vec); err != nil {
			p.mu.Unlock()
			return fmt.Errorf("prometheus: %s: %w", name, err)
		}
		p.histograms[name] = vec
	}
	p.mu.Unlock()

	h, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return fmt.Errorf("prometheus: %s: %w", name, err)
	}
	h.Observe(value)
	return nil
}

// splitTags converte "k:v" em rótulos ordenados por chave.
func splitTags(tags []string) (keys, values []string) {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)
	for _, t := range sorted {
		k, v, _ := strings.Cut(t, ":")
		keys = append(keys, sanitize(k))
		values = append(values, v)
	}
	return keys, values
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}
