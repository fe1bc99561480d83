// Package metrics expone métricas Prometheus de ingesta, alertas y HTTP.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/flowlogic-api/internal/application/ports"
)

const namespace = "flowlogic"

var _ ports.MetricsRecorder = (*Recorder)(nil)

// Recorder implementa ports.MetricsRecorder y las métricas del middleware HTTP.
type Recorder struct {
	ingestions      *prometheus.CounterVec
	ingestedRecords prometheus.Counter
	rowErrors       prometheus.Counter
	alertsCreated   *prometheus.CounterVec
	alertsDeduped   prometheus.Counter
	ruleFailures    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New crea los collectors y los registra en reg. Un collector ya registrado no es error.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestions_total",
			Help:      "Ingestas finalizadas, por estado.",
		}, []string{"status"}),
		ingestedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_records_total",
			Help:      "Snapshots de inventario importados.",
		}),
		rowErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_row_errors_total",
			Help:      "Filas rechazadas durante la ingesta.",
		}),
		alertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Alertas persistidas, por tipo.",
		}, []string{"type"}),
		alertsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_deduplicated_total",
			Help:      "Alertas descartadas por existir una abierta con la misma clave.",
		}),
		ruleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_rule_failures_total",
			Help:      "Fallos aislados de reglas de alertas.",
		}, []string{"rule"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP atendidas.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latencia de las peticiones HTTP.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
	}

	collectors := []prometheus.Collector{
		r.ingestions, r.ingestedRecords, r.rowErrors, r.alertsCreated,
		r.alertsDeduped, r.ruleFailures, r.httpRequests, r.httpDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) IngestionFinished(status string, records, errs int) {
	r.ingestions.WithLabelValues(status).Inc()
	r.ingestedRecords.Add(float64(records))
	r.rowErrors.Add(float64(errs))
}

func (r *Recorder) AlertsCreated(alertType string, n int) {
	if n > 0 {
		r.alertsCreated.WithLabelValues(alertType).Add(float64(n))
	}
}

func (r *Recorder) AlertsDeduplicated(n int) {
	if n > 0 {
		r.alertsDeduped.Add(float64(n))
	}
}

func (r *Recorder) RuleFailed(rule string) {
	r.ruleFailures.WithLabelValues(rule).Inc()
}

// ObserveHTTP registra una petición. route es el patrón de la ruta, no la URL.
func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if d < 0 {
		d = 0
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
