package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chronic_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecast pipeline and the query API.
type Metrics struct {
	RowsFetched     prometheus.Counter
	RecordsSelected *prometheus.CounterVec // labels: metric
	Forecasts       *prometheus.CounterVec // labels: metric, outcome={ok,insufficient,fit_failed}
	DroppedStates   *prometheus.CounterVec // labels: missing
	ArtifactRows    prometheus.Gauge
	SinkErrors      *prometheus.CounterVec // labels: sink

	RunDuration    prometheus.Histogram
	RunsTotal      *prometheus.CounterVec // labels: result={success,failure}
	LastSuccess    prometheus.Gauge
	PipelineActive prometheus.Gauge

	// Source fetch metrics.
	FetchPageDuration prometheus.Histogram
	FetchRetries      prometheus.Counter

	// Query API metrics.
	HTTPRequests *prometheus.CounterVec // labels: route, code
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, which
// avoids "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_fetched_total",
			Help:      "Raw indicator rows read from the CDC source.",
		}),
		RecordsSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_selected_total",
			Help:      "Count observations kept by input selection, by metric.",
		}, []string{"metric"}),
		Forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_total",
			Help:      "Per-state forecasts by metric and outcome.",
		}, []string{"metric", "outcome"}),
		DroppedStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_states_total",
			Help:      "States excluded by the join because one metric was absent.",
		}, []string{"missing"}),
		ArtifactRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_rows",
			Help:      "Rows in the most recent artifact.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Artifact delivery failures by sink.",
		}, []string{"sink"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete pipeline run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by result.",
		}, []string{"result"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		PipelineActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		FetchPageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_page_duration_seconds",
			Help:      "CDC page request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "CDC page requests retried after a transient failure.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Query API requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsFetched,
		m.RecordsSelected,
		m.Forecasts,
		m.DroppedStates,
		m.ArtifactRows,
		m.SinkErrors,
		m.RunDuration,
		m.RunsTotal,
		m.LastSuccess,
		m.PipelineActive,
		m.FetchPageDuration,
		m.FetchRetries,
		m.HTTPRequests,
	}
}
