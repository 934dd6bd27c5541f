package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "app_cadastro_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_cadastro_active_connections",
			Help: "Number of active connections",
		},
	)

	// Submissions tracks form submissions by outcome
	// (stored, invalid, checksum_failed, store_error)
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_cadastro_submissions_total",
			Help: "Number of form submissions by outcome",
		},
		[]string{"outcome"},
	)

	// StoreOperations tracks record store operations
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_cadastro_store_operations_total",
			Help: "Number of record store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// RecordsStored tracks the size of the in-memory record list
	RecordsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_cadastro_records_stored",
			Help: "Number of records currently loaded",
		},
	)
)
