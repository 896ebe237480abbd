package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider para verificar chamadas
type MockProvider struct {
	Calls []string
	Tags  map[string][]string
	Err   error
}

func (m *MockProvider) record(kind, name string, tags []string) error {
	m.Calls = append(m.Calls, kind+":"+name)
	if m.Tags == nil {
		m.Tags = map[string][]string{}
	}
	m.Tags[name] = tags
	return m.Err
}

func (m *MockProvider) Count(name string, val float64, tags []string) error {
	return m.record("count", name, tags)
}

func (m *MockProvider) Gauge(name string, val float64, tags []string) error {
	return m.record("gauge", name, tags)
}

func (m *MockProvider) Histogram(name string, val float64, tags []string) error {
	return m.record("histogram", name, tags)
}

func TestRecorder(t *testing.T) {
	t.Run("Requisição comum", func(t *testing.T) {
		p := &MockProvider{}
		NewRecorder(p).ObserveRequest("people", "GET", 200, 15*time.Millisecond)

		assert.Equal(t, []string{"count:" + MetricRequests, "histogram:" + MetricLatency}, p.Calls)
		assert.Equal(t, []string{"table:people", "method:GET", "status:200"}, p.Tags[MetricRequests])
	})

	t.Run("Acesso negado", func(t *testing.T) {
		p := &MockProvider{}
		NewRecorder(p).ObserveRequest("people", "DELETE", 401, time.Millisecond)

		assert.Contains(t, p.Calls, "count:"+MetricAccessDenied)
		assert.Equal(t, []string{"table:people", "method:DELETE"}, p.Tags[MetricAccessDenied])
	})

	t.Run("Coleção e reload", func(t *testing.T) {
		p := &MockProvider{}
		r := NewRecorder(p)
		r.ObserveCollection("people", 2)
		r.ObserveReload(false)

		assert.Equal(t, []string{"gauge:" + MetricRecordsReturned, "count:" + MetricConfigReloads}, p.Calls)
		assert.Equal(t, []string{"success:false"}, p.Tags[MetricConfigReloads])
	})

	t.Run("Nil seguro", func(t *testing.T) {
		var r *Recorder
		assert.NotPanics(t, func() {
			r.ObserveRequest("t", "GET", 200, 0)
			NewRecorder(nil).ObserveCollection("t", 1)
		})
	})
}

func TestMulti(t *testing.T) {
	a := &MockProvider{}
	b := &MockProvider{Err: errors.New("down")}

	err := Multi{a, b}.Count("x", 1, nil)
	assert.ErrorContains(t, err, "down")
	assert.Equal(t, []string{"count:x"}, a.Calls)
	assert.Equal(t, []string{"count:x"}, b.Calls)

	assert.NoError(t, Multi{a}.Gauge("y", 1, nil))
	assert.NoError(t, Multi{a}.Histogram("z", 1, nil))
}

func TestPrometheusProvider(t *testing.T) {
	p := NewPrometheusProvider("fdi")
	r := NewRecorder(p)

	r.ObserveRequest("people", "GET", 200, 20*time.Millisecond)
	r.ObserveRequest("people", "GET", 200, 10*time.Millisecond)
	r.ObserveCollection("people", 7)

	families, err := p.Registry().Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, mf := range families {
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			byName[mf.GetName()] = m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			byName[mf.GetName()] = m.GetGauge().GetValue()
		case m.GetHistogram() != nil:
			byName[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
		}
	}

	assert.Equal(t, 2.0, byName["fdi_tableapi_requests_total"])
	assert.Equal(t, 2.0, byName["fdi_tableapi_latency_ms"])
	assert.Equal(t, 7.0, byName["fdi_tableapi_records_returned"])

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `fdi_tableapi_requests_total{method="GET",status="200",table="people"} 2`)
}

func TestPrometheusProvider_LabelMismatch(t *testing.T) {
	p := NewPrometheusProvider("")
	require.NoError(t, p.Count("hits", 1, []string{"a:1"}))
	assert.Error(t, p.Count("hits", 1, []string{"a:1", "b:2"}))
}
