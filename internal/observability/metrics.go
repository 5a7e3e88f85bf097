package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges of a preprocessing run.
// They live in a private registry that is written out once, at the end of a
// run, in the node exporter textfile format.
type Metrics struct {
	registry *prometheus.Registry

	FilesWritten        *prometheus.CounterVec // labels: kind={monthly_mean,coordinates}
	TimeStepsAveraged   *prometheus.CounterVec // labels: variable
	PressureConversions prometheus.Counter
	ModelsProcessed     prometheus.Counter
	RunDuration         prometheus.Gauge
	LastSuccess         prometheus.Gauge
}

// NewMetrics creates and registers all run metrics with a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gcmclim",
			Name:      "files_written_total",
			Help:      "Output files written, by kind.",
		}, []string{"kind"}),
		TimeStepsAveraged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gcmclim",
			Name:      "time_steps_averaged_total",
			Help:      "Monthly GCM time steps folded into climatological means, by variable.",
		}, []string{"variable"}),
		PressureConversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gcmclim",
			Name:      "pressure_conversions_total",
			Help:      "Monthly mean pressure fields converted from Pa to hPa.",
		}),
		ModelsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gcmclim",
			Name:      "models_processed_total",
			Help:      "Models whose climatology and grid were fully written.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gcmclim",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gcmclim",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	m.registry.MustRegister(
		m.FilesWritten,
		m.TimeStepsAveraged,
		m.PressureConversions,
		m.ModelsProcessed,
		m.RunDuration,
		m.LastSuccess,
	)
	return m
}

// WriteTextfile writes the current metric values to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
