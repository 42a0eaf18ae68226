package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the Prometheus counters and histograms for one ETL run.
// The pipeline is a batch job, so metrics live on their own registry and are
// pushed to a Pushgateway after the run instead of being scraped.
type Metrics struct {
	registry *prometheus.Registry

	WeatherRecordsIn   prometheus.Counter
	PollutionRecordsIn prometheus.Counter
	RecordsOut         prometheus.Counter
	MalformedSkipped   prometheus.Counter
	DuplicateKeys      prometheus.Counter
	AlignmentConflicts prometheus.Counter
	GapsInterpolated   prometheus.Counter
	GapsCarriedForward prometheus.Counter
	RecordsDropped     prometheus.Counter

	StageDuration *prometheus.HistogramVec // label: stage={extract,merge,fill,enrich,write,report}
	RunDuration   prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WeatherRecordsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_etl",
			Name:      "weather_records_in_total",
			Help:      "Raw weather records accepted by the loader.",
		}),
		PollutionRecordsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_etl",
			Name:      "pollution_records_in_total",
			Help:      "Raw pollution records accepted by the loader.",
		}),
		RecordsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_etl",
			Name:      "records_out_total",
			Help:      "Enriched records written to the artifact.",
		}),
		MalformedSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_etl",
			Name:      "malformed_records_skipped_total",
			Help:      "Raw records skipped for missing or unparseable fields.",
		}),
		DuplicateKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_etl",
			Name:      "duplicate_keys_total",
			Help:      "Raw records that re-used an already-seen (city, timestamp) key.",
		}),
		AlignmentConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_etl",
			Name:      "alignment_conflicts_total",
			Help:      "Duplicate keys whose values disagreed (last write won).",
		}),
		GapsInterpolated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_etl",
			Name:      "gaps_interpolated_total",
			Help:      "Field values filled by linear interpolation.",
		}),
		GapsCarriedForward: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_etl",
			Name:      "gaps_carried_forward_total",
			Help:      "Field values filled from the prior day's same hour.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "air_etl",
			Name:      "records_dropped_total",
			Help:      "Merged records dropped as unfillable.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "air_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"stage"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "air_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete pipeline run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
	}

	m.registry.MustRegister(
		m.WeatherRecordsIn,
		m.PollutionRecordsIn,
		m.RecordsOut,
		m.MalformedSkipped,
		m.DuplicateKeys,
		m.AlignmentConflicts,
		m.GapsInterpolated,
		m.GapsCarriedForward,
		m.RecordsDropped,
		m.StageDuration,
		m.RunDuration,
	)

	return m
}

// Push delivers the run's metrics to a Pushgateway. Called once after the
// pipeline finishes; failures are reported but should not fail the run.
func (m *Metrics) Push(url, job string) error {
	return push.New(url, job).Gatherer(m.registry).Push()
}
