// Package metrics provides Prometheus metrics for storage navigation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Cursor metrics
	navigationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filenav_navigation_total",
			Help: "Total number of navigation operations",
		},
		[]string{"op", "result"},
	)

	listDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filenav_list_duration_seconds",
			Help:    "Directory listing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"state"},
	)

	hostOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filenav_host_operations_total",
			Help: "Total number of delegated host filesystem operations",
		},
		[]string{"op", "result"},
	)

	// Storage metrics
	storageRoots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filenav_storage_roots",
			Help: "Number of storage roots in the latest enumeration",
		},
	)

	mediaChangesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filenav_media_changes_total",
			Help: "Total number of media-changed notifications delivered",
		},
	)

	notifierEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filenav_notifier_events_total",
			Help: "Total number of mount events published by the notifier",
		},
		[]string{"type"},
	)

	// Backend metrics
	s3OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filenav_s3_operation_duration_seconds",
			Help:    "S3 operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filenav_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordNavigation records a cursor operation outcome.
func RecordNavigation(op string, success bool) {
	navigationTotal.WithLabelValues(op, result(success)).Inc()
}

// RecordList records a listing; state is "root" or "dir".
func RecordList(state string, duration time.Duration) {
	listDuration.WithLabelValues(state).Observe(duration.Seconds())
}

// RecordHostOperation records a delegated file operation outcome.
func RecordHostOperation(op string, success bool) {
	hostOperationsTotal.WithLabelValues(op, result(success)).Inc()
}

// SetStorageRoots sets the storage root gauge.
func SetStorageRoots(count int) {
	storageRoots.Set(float64(count))
}

// RecordMediaChange records a media-changed notification.
func RecordMediaChange() {
	mediaChangesTotal.Inc()
}

// RecordNotifierEvent records a published mount event.
func RecordNotifierEvent(eventType string) {
	notifierEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordS3Operation records an S3 operation.
func RecordS3Operation(operation string, duration time.Duration, success bool) {
	s3OperationDuration.WithLabelValues(operation, result(success)).Observe(duration.Seconds())
}

// RecordDBQuery records a database query duration.
func RecordDBQuery(query string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
