package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics tracks HTTP API metrics
type APIMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewAPIMetrics initializes API-level metrics with the collector
func NewAPIMetrics(collector *Collector) *APIMetrics {
	return &APIMetrics{
		requestsTotal: collector.RegisterCounter(
			MetricAPIRequestsTotal,
			"Total HTTP API requests by method, path and status code",
			[]string{LabelMethod, LabelPath, LabelStatus},
		),
		requestDuration: collector.RegisterHistogram(
			MetricAPIRequestDuration,
			"HTTP API request latency in seconds",
			[]string{LabelMethod, LabelPath},
			prometheus.DefBuckets,
		),
	}
}

// RecordRequest records a completed HTTP request
func (m *APIMetrics) RecordRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
