package metrics

import "time"

// HTTPMetrics provides observability for the API.
//
// pkg/metrics/prometheus provides the Prometheus implementation; without
// one the API uses NewNoopHTTPMetrics.
type HTTPMetrics interface {
	// RecordRequest records a completed request.
	//
	// Parameters:
	//   - method: HTTP method
	//   - route: Route pattern (e.g. "/files/{id}/data"), never the raw path
	//   - status: Response status code
	//   - duration: Time taken to serve the request
	RecordRequest(method, route string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight gauge.
	RecordRequestStart()

	// RecordRequestEnd decrements the in-flight gauge.
	RecordRequestEnd()

	// RecordRateLimited counts a request rejected by the rate limiter.
	RecordRateLimited()
}

// NewNoopHTTPMetrics returns an HTTPMetrics that records nothing.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(string, string, int, time.Duration) {}
func (noopHTTPMetrics) RecordRequestStart()                              {}
func (noopHTTPMetrics) RecordRequestEnd()                                {}
func (noopHTTPMetrics) RecordRateLimited()                               {}
