package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Gallery-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gallery",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Picker provider API calls
	PickerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "api",
			Name:      "picker_operations_total",
			Help:      "Total picker provider API operations",
		},
		[]string{"operation", "status"},
	)

	// Ingested item outcomes per batch item
	IngestItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "api",
			Name:      "ingest_items_total",
			Help:      "Total ingestion item outcomes",
		},
		[]string{"outcome"}, // ingested, skipped, error
	)

	// Ingested bytes counter
	IngestBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "api",
			Name:      "ingest_bytes_total",
			Help:      "Total bytes downloaded and re-hosted",
		},
	)

	// Ingestion batch duration
	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gallery",
			Subsystem: "api",
			Name:      "ingest_duration_seconds",
			Help:      "Full ingestion batch duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	// Content store operations
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "api",
			Name:      "storage_operations_total",
			Help:      "Total content store operations",
		},
		[]string{"operation", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordPickerOperation records a picker provider API call
func RecordPickerOperation(operation, status string) {
	PickerOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordIngestItem records the outcome of one batch item
func RecordIngestItem(outcome string, bytes int64) {
	IngestItemsTotal.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		IngestBytesTotal.Add(float64(bytes))
	}
}

// RecordIngestBatch records a full ingestion batch
func RecordIngestBatch(durationSec float64) {
	IngestDuration.Observe(durationSec)
}

// RecordStorageOperation records a content store operation
func RecordStorageOperation(operation, status string) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
}
