package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks store-level metrics
type StoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	reapedTotal       *prometheus.CounterVec
	contentionsTotal  *prometheus.CounterVec
	rows              *prometheus.GaugeVec
	expiredRows       *prometheus.GaugeVec
}

// NewStoreMetrics initializes store-level metrics with the collector
func NewStoreMetrics(collector *Collector) *StoreMetrics {
	return &StoreMetrics{
		operationsTotal: collector.RegisterCounter(
			MetricStoreOperationsTotal,
			"Total store operations by operation and status",
			[]string{LabelOperation, LabelStatus},
		),
		operationDuration: collector.RegisterHistogram(
			MetricStoreOperationDuration,
			"Store operation latency in seconds",
			[]string{LabelOperation},
			prometheus.DefBuckets,
		),
		reapedTotal: collector.RegisterCounter(
			MetricStoreReapedTotal,
			"Total number of expired keys physically removed",
			nil,
		),
		contentionsTotal: collector.RegisterCounter(
			MetricStoreContentionsTotal,
			"Total operations that failed on lock contention",
			[]string{LabelOperation},
		),
		rows: collector.RegisterGauge(
			MetricStoreRows,
			"Stored records including unswept expired rows",
			nil,
		),
		expiredRows: collector.RegisterGauge(
			MetricStoreExpiredRows,
			"Expired records awaiting physical removal",
			nil,
		),
	}
}

// RecordOperation records a completed store operation
func (m *StoreMetrics) RecordOperation(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordContention records an operation that failed on lock contention
func (m *StoreMetrics) RecordContention(operation string) {
	if m == nil {
		return
	}
	m.contentionsTotal.WithLabelValues(operation).Inc()
}

// RecordReaped records expired keys removed by a sweep
func (m *StoreMetrics) RecordReaped(n int64) {
	if m == nil {
		return
	}
	m.reapedTotal.WithLabelValues().Add(float64(n))
}

// SetRowCounts updates the row-count gauges
func (m *StoreMetrics) SetRowCounts(total, expired int64) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues().Set(float64(total))
	m.expiredRows.WithLabelValues().Set(float64(expired))
}
