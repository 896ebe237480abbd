package metrics

import "errors"

// Provider define o contrato para envio de métricas.
// Tags seguem o formato "chave:valor".
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}

// Multi repassa cada métrica a todos os providers.
type Multi []Provider

func (m Multi) Count(name string, value float64, tags []string) error {
	return m.each(func(p Provider) error { return p.Count(name, value, tags) })
}

func (m Multi) Gauge(name string, value float64, tags []string) error {
	return m.each(func(p Provider) error { return p.Gauge(name, value, tags) })
}

func (m Multi) Histogram(name string, value float64, tags []string) error {
	return m.each(func(p Provider) error { return p.Histogram(name, value, tags) })
}

func (m Multi) each(fn func(Provider) error) error {
	var errs []error
	for _, p := range m {
		if err := fn(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
