package tracing

// Config holds configuration for OpenTelemetry tracing
type Config struct {
	// Enabled enables/disables tracing
	Enabled bool

	// ServiceName is the service name for traces
	ServiceName string

	// ServiceVersion is the service version
	ServiceVersion string

	// Endpoint is the OTLP endpoint URL
	Endpoint string

	// Insecure skips TLS verification
	Insecure bool

	// ExporterType specifies the exporter type: "grpc" or "http"
	ExporterType string
}

// DefaultConfig returns a default tracing configuration
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "flashkv",
		ServiceVersion: "0.1.0",
		ExporterType:   "grpc",
	}
}
