package store

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/munindb/munin/pkg/codec"
)

const (
	statusSuccess  = "success"
	statusNotFound = "not_found"
	statusError    = "error"
)

// storeMetrics holds the Prometheus metrics for engine operations. They
// are registered once on the default registry; there is no HTTP exposure
// in the engine itself, the CLI gathers and prints them on demand.
type storeMetrics struct {
	opsTotal        *prometheus.CounterVec
	opDuration      *prometheus.HistogramVec
	keysTotal       prometheus.Gauge
	logSizeBytes    prometheus.Gauge
	corruptionTotal prometheus.Counter
}

// metrics is process-wide: a second Store in the same process shares the
// series rather than panicking on duplicate registration.
var metrics = newStoreMetrics()

func newStoreMetrics() *storeMetrics {
	return &storeMetrics{
		opsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "munin_ops_total",
				Help: "Total number of store operations",
			},
			[]string{"operation", "status"},
		),

		opDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "munin_op_duration_seconds",
				Help:    "Store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		keysTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "munin_keys_total",
				Help: "Number of keys in the in-memory index",
			},
		),

		logSizeBytes: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "munin_log_size_bytes",
				Help: "Size of the log file in bytes",
			},
		),

		corruptionTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "munin_corruption_errors_total",
				Help: "Number of corruption errors observed",
			},
		),
	}
}

// observeOp records one engine operation. ErrKeyNotFound is a normal
// outcome, not an error, and gets its own status.
func (m *storeMetrics) observeOp(operation string, start time.Time, err error) {
	status := statusSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrKeyNotFound):
		status = statusNotFound
	default:
		status = statusError
		var corruption *codec.CorruptionError
		if errors.As(err, &corruption) {
			m.corruptionTotal.Inc()
		}
	}

	m.opsTotal.WithLabelValues(operation, status).Inc()
	m.opDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *storeMetrics) setStoreStats(keys int, logSize int64) {
	m.keysTotal.Set(float64(keys))
	m.logSizeBytes.Set(float64(logSize))
}
