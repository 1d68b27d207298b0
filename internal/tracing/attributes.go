package tracing

// Span attribute keys
const (
	// Store attributes
	AttrKey       = "flashkv.key"
	AttrOperation = "flashkv.operation"
	AttrPattern   = "flashkv.pattern"
	AttrBatchSize = "flashkv.batch.size"

	// HTTP attributes (OpenTelemetry semantic conventions)
	AttrHTTPMethod     = "http.method"
	AttrHTTPRoute      = "http.route"
	AttrHTTPStatusCode = "http.status_code"
)
