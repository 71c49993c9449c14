// Package metrics provides Prometheus metrics for notesh.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Shell metrics
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notesh_commands_total",
			Help: "Total number of dispatched shell commands",
		},
		[]string{"command", "status"},
	)

	pipelineStages = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notesh_pipeline_stages",
			Help:    "Number of stages per submitted pipeline",
			Buckets: []float64{1, 2, 3, 4, 6, 8},
		},
	)

	pipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notesh_pipeline_duration_seconds",
			Help:    "Time to execute a submitted command line",
			Buckets: prometheus.DefBuckets,
		},
	)

	sessionFaults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notesh_session_faults_total",
			Help: "Command stages that failed with an unexpected error or panic",
		},
	)

	// Import metrics
	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notesh_imports_total",
			Help: "Total snapshot imports",
		},
		[]string{"source", "status"},
	)

	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notesh_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCommand records one dispatched stage. Unresolved commands are
// counted under "unknown" so typos cannot grow the label set.
func RecordCommand(command string, resolved, failed bool) {
	if !resolved {
		command = "unknown"
	}
	commandsTotal.WithLabelValues(command, status(!failed)).Inc()
}

// RecordPipeline records a submitted line's stage count and duration.
func RecordPipeline(stages int, duration time.Duration) {
	pipelineStages.Observe(float64(stages))
	pipelineDuration.Observe(duration.Seconds())
}

// RecordFault records a stage that failed outside the normal result path.
func RecordFault() {
	sessionFaults.Inc()
}

// RecordImport records a snapshot import from source ("shell", "inbox").
func RecordImport(source string, success bool) {
	importsTotal.WithLabelValues(source, status(success)).Inc()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, code int) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
