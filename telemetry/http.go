package telemetry

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClient returns an *http.Client whose transport is instrumented with
// otelhttp: every request the pipeline sends through it produces an HTTP
// client span and propagates trace context to the backend via W3C
// traceparent headers.
func HTTPClient(timeout time.Duration, operation string) *http.Client {
	transport := otelhttp.NewTransport(
		http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return operation + " " + r.Method
		}),
	)

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
