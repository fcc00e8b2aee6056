package handlers

import (
	"net/http"
	"strconv"
	"time"

	"temperature-dashboard/pipeline"
	"temperature-dashboard/series"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	feedSnapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_snapshots_total",
		Help: "Total number of feed snapshots applied",
	})

	feedErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_errors_total",
		Help: "Total number of feed subscription failures",
	})

	feedRecordsMalformedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_records_malformed_total",
		Help: "Readings kept with a non-numeric value",
	})

	feedRecordsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feed_records_dropped_total",
		Help: "Records dropped because their timestamp could not be parsed",
	})

	feedReadings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feed_readings",
		Help: "Number of readings in the latest snapshot",
	})

	recomputeDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_recompute_duration_seconds",
		Help:    "Time spent normalizing a snapshot",
		Buckets: prometheus.DefBuckets,
	})

	websocketSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_sessions_active",
		Help: "Open dashboard WebSocket sessions",
	})
)

// PipelineHooks reports engine activity to prometheus.
func PipelineHooks() pipeline.Hooks {
	return pipeline.Hooks{
		OnSnapshot: func(report series.Report, readings int, took time.Duration) {
			feedSnapshotsTotal.Inc()
			feedRecordsMalformedTotal.Add(float64(len(report.Malformed)))
			feedRecordsDroppedTotal.Add(float64(len(report.Dropped)))
			feedReadings.Set(float64(readings))
			recomputeDurationSeconds.Observe(took.Seconds())
		},
		OnFailure: func(error) {
			feedErrorsTotal.Inc()
		},
	}
}

// Instrument records request count and latency per route template.
// WebSocket sessions only count towards http_requests_total.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		m := httpsnoop.CaptureMetrics(next, w, r)
		if endpoint != websocketPath {
			requestDurationSeconds.WithLabelValues(r.Method, endpoint).Observe(m.Duration.Seconds())
		}
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(m.Code)).Inc()
	})
}
