package ports

// MetricsRecorder puerto de salida para métricas operativas.
// La implementación Prometheus vive en infrastructure/metrics; los tests usan NopMetrics.
type MetricsRecorder interface {
	IngestionFinished(status string, records, errors int)
	AlertsCreated(alertType string, n int)
	AlertsDeduplicated(n int)
	RuleFailed(rule string)
}

// NopMetrics descarta todas las métricas.
type NopMetrics struct{}

func (NopMetrics) IngestionFinished(string, int, int) {}
func (NopMetrics) AlertsCreated(string, int)          {}
func (NopMetrics) AlertsDeduplicated(int)             {}
func (NopMetrics) RuleFailed(string)                  {}
