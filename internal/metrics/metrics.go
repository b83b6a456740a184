package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuditWriteFailures counts audit log writes that were swallowed because the
	// store rejected them. The primary mutation still succeeded.
	AuditWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Total number of failed best-effort audit log writes",
		},
	)

	// CodeConflicts counts entity code collisions detected at insert time
	// (unique violation on the code column).
	CodeConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "entity_code_conflicts_total",
			Help: "Total number of entity code unique-constraint collisions",
		},
	)

	// DigestRuns counts digest job completions by status (completed, error).
	DigestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_runs_total",
			Help: "Total number of digest job runs by status",
		},
		[]string{"status"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuditWriteFailures, CodeConflicts, DigestRuns)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /bugs/123 -> /bugs/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncAuditWriteFailure increments the swallowed audit write counter.
func IncAuditWriteFailure() {
	AuditWriteFailures.Inc()
}

// IncCodeConflict increments the entity code collision counter.
func IncCodeConflict() {
	CodeConflicts.Inc()
}

// IncDigestRun increments the digest run counter for the given status (completed, error).
func IncDigestRun(status string) {
	DigestRuns.WithLabelValues(status).Inc()
}
