package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	ServiceName string
	Environment string
}

type RunMetrics struct {
	runs           *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	planItems      prometheus.Gauge
	requestedUnits prometheus.Gauge
	allocatedUnits prometheus.Gauge
	exceptions     prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

func NewRunMetrics(registerer prometheus.Registerer, cfg Config) *RunMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "omnipos-replenishment"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "replenishment_runs_total",
			Help:        "Replenishment runs by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // committed | conflict | failed
	)

	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "replenishment_run_duration_seconds",
			Help:        "Wall time of replenishment runs.",
			Buckets:     []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			ConstLabels: constLabels,
		},
		[]string{"result"},
	)

	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}

	m := &RunMetrics{
		runs:           runs,
		runDuration:    runDuration,
		planItems:      gauge("replenishment_last_run_plan_items", "Plan rows written by the last committed run."),
		requestedUnits: gauge("replenishment_last_run_requested_units", "Units requested by the last committed run."),
		allocatedUnits: gauge("replenishment_last_run_allocated_units", "Units allocated by the last committed run."),
		exceptions:     gauge("replenishment_last_run_exceptions", "Exception rows in the last committed run."),
		lastSuccess:    gauge("replenishment_last_success_timestamp_seconds", "Unix time of the last committed run."),
	}

	registerer.MustRegister(
		m.runs,
		m.runDuration,
		m.planItems,
		m.requestedUnits,
		m.allocatedUnits,
		m.exceptions,
		m.lastSuccess,
	)
	return m
}

func (m *RunMetrics) ObserveRun(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (m *RunMetrics) SetLastRun(items int, requested, allocated int64, exceptions int, at time.Time) {
	if m == nil {
		return
	}
	m.planItems.Set(float64(items))
	m.requestedUnits.Set(float64(requested))
	m.allocatedUnits.Set(float64(allocated))
	m.exceptions.Set(float64(exceptions))
	m.lastSuccess.Set(float64(at.Unix()))
}
