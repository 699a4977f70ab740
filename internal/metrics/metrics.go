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

	// PublishTotal counts publish attempts by change type and outcome (published, failed).
	PublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_publish_total",
			Help: "Total number of change-request publish attempts by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// ReviewTotal counts review decisions by action (approve, reject).
	ReviewTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_review_total",
			Help: "Total number of change-request review decisions",
		},
		[]string{"action"},
	)

	// ManifestRebuildSeconds tracks how long a full manifest regeneration takes.
	ManifestRebuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "manifest_rebuild_duration_seconds",
			Help:    "Duration of full manifest regenerations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// StagedCleanupTotal counts staged objects deleted on reject/cancel/publish.
	StagedCleanupTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "staged_cleanup_total",
			Help: "Total number of staged objects deleted",
		},
	)
)

var (
	idPathSegment = regexp.MustCompile(`/([0-9]+|[0-9a-f]{16,})(/|$)`)
	initOnce      sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, PublishTotal, ReviewTotal, ManifestRebuildSeconds, StagedCleanupTotal)
	})
}

// NormalizePath reduces cardinality by replacing id path segments with {id}.
// E.g. /changes/8f14e45fceea167a -> /changes/{id}.
func NormalizePath(path string) string {
	return idPathSegment.ReplaceAllString(path, "/{id}$2")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}
