package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the recorder
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	RecordingsStartedTotal prometheus.Counter
	RecordingsStoppedTotal prometheus.Counter
	ForcedStopsTotal       prometheus.Counter

	// Capture metrics
	FramesWrittenTotal prometheus.Counter
	FramesDroppedTotal prometheus.Counter
	EventRecordsTotal  *prometheus.CounterVec

	// Disk metrics
	DiskFreeGB prometheus.Gauge
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		RecordingsStartedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "recordings_started_total",
				Help: "Total number of recording sessions started",
			},
		),
		RecordingsStoppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "recordings_stopped_total",
				Help: "Total number of recording sessions stopped",
			},
		),
		ForcedStopsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "recordings_forced_stops_total",
				Help: "Total number of recordings stopped by admission control or timing faults",
			},
		),
		FramesWrittenTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "video_frames_written_total",
				Help: "Total number of video frames written to the container",
			},
		),
		FramesDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "video_frames_dropped_total",
				Help: "Total number of video frames rejected for non-monotonic timestamps",
			},
		),
		EventRecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_records_total",
				Help: "Total number of event records persisted per stream",
			},
			[]string{"stream"},
		),
		DiskFreeGB: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "disk_free_gb",
				Help: "Free disk space on the recordings volume in GB",
			},
		),
	}

	registry.MustRegister(
		m.RecordingsStartedTotal,
		m.RecordingsStoppedTotal,
		m.ForcedStopsTotal,
		m.FramesWrittenTotal,
		m.FramesDroppedTotal,
		m.EventRecordsTotal,
		m.DiskFreeGB,
	)

	return m
}

// Handler returns an HTTP handler exposing the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
