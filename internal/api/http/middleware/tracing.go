package middleware

import (
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/flashkv/engine/internal/tracing"
)

// Tracing creates tracing middleware for HTTP requests
func Tracing() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			propagator := otel.GetTextMapPropagator()
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			tracer := otel.Tracer("flashkv.http")

			ctx, span := tracer.Start(ctx, "HTTP "+r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
			)

			span.SetAttributes(
				attribute.String(tracing.AttrHTTPMethod, r.Method),
				attribute.String(tracing.AttrHTTPRoute, r.URL.Path),
				attribute.String("http.host", r.Host),
				attribute.String("http.remote_addr", r.RemoteAddr),
			)

			ww := &tracedResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			r = r.WithContext(ctx)
			next.ServeHTTP(ww, r)

			span.SetAttributes(
				attribute.Int(tracing.AttrHTTPStatusCode, ww.statusCode),
			)

			if ww.statusCode >= 400 {
				span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(ww.statusCode))
			} else {
				span.SetStatus(codes.Ok, "")
			}

			span.End()
		})
	}
}

// tracedResponseWriter wraps http.ResponseWriter to capture status code
type tracedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *tracedResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
