package metrics

import (
	"strconv"
	"time"
)

// Nomes das métricas emitidas pelo serviço.
const (
	MetricRequests        = "tableapi.requests"
	MetricLatency         = "tableapi.latency_ms"
	MetricRecordsReturned = "tableapi.records_returned"
	MetricAccessDenied    = "tableapi.access_denied"
	MetricConfigReloads   = "config.reloads"
)

// Recorder traduz eventos do tradutor de tabelas em métricas do Provider.
// Falhas de envio são ignoradas: métricas nunca interrompem uma requisição.
type Recorder struct {
	provider Provider
}

// NewRecorder cria um Recorder. Um provider nil descarta tudo.
func NewRecorder(p Provider) *Recorder {
	return &Recorder{provider: p}
}

// ObserveRequest registra uma chamada finalizada.
func (r *Recorder) ObserveRequest(table, method string, status int, elapsed time.Duration) {
	if r == nil || r.provider == nil {
		return
	}
	tags := []string{
		"table:" + table,
		"method:" + method,
		"status:" + strconv.Itoa(status),
	}
	_ = r.provider.Count(MetricRequests, 1, tags)
	_ = r.provider.Histogram(MetricLatency, float64(elapsed.Microseconds())/1000, tags)
	if status == 401 {
		_ = r.provider.Count(MetricAccessDenied, 1, tags[:2])
	}
}

// ObserveCollection registra o total de registros de uma leitura de coleção.
func (r *Recorder) ObserveCollection(table string, total int) {
	if r == nil || r.provider == nil {
		return
	}
	_ = r.provider.Gauge(MetricRecordsReturned, float64(total), []string{"table:" + table})
}

// ObserveReload registra uma tentativa de hot reload.
func (r *Recorder) ObserveReload(ok bool) {
	if r == nil || r.provider == nil {
		return
	}
	_ = r.provider.Count(MetricConfigReloads, 1, []string{"success:" + strconv.FormatBool(ok)})
}
