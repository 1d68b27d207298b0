package metrics

// Metric name constants following Prometheus naming conventions
// Format: flashkv_{component}_{metric}_{unit}

// Store metrics
const (
	MetricStoreOperationsTotal   = "flashkv_store_operations_total"
	MetricStoreOperationDuration = "flashkv_store_operation_duration_seconds"
	MetricStoreReapedTotal       = "flashkv_store_reaped_keys_total"
	MetricStoreRows              = "flashkv_store_rows"
	MetricStoreExpiredRows       = "flashkv_store_expired_rows"
	MetricStoreContentionsTotal  = "flashkv_store_contentions_total"
)

// API metrics
const (
	MetricAPIRequestsTotal   = "flashkv_api_requests_total"
	MetricAPIRequestDuration = "flashkv_api_request_duration_seconds"
)

// Label name constants
const (
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelMethod    = "method"
	LabelPath      = "path"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
