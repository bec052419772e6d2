// Package metrics exposes the Prometheus metrics of the Etsy client.
// The metrics themselves are defined in their packages (client, ratelimit)
// and registered on Registry via promauto.With.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer used by the Etsy client.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the Prometheus gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Names lists every metric exported by the client.
var Names = []string{
	"etsy_requests_total",
	"etsy_request_duration_seconds",
	"etsy_errors_total",
	"etsy_pages_fetched_total",
	"etsy_retries_total",
	"etsy_retry_backoff_seconds",
	"etsy_retry_exhausted_total",
	"etsy_quota_remaining",
	"etsy_quota_low_total",
	"etsy_quota_blocks_total",
}

// Handler serves the metrics of Gatherer.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - etsy_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - etsy_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - etsy_errors_total{class} (Counter): Errors by class (rate_limit, api, network, decode)
//   - etsy_pages_fetched_total (Counter): Listing pages decoded
//
// Retry Metrics (pkg/client):
//   - etsy_retries_total{operation} (Counter): Backoff waits by operation
//   - etsy_retry_backoff_seconds{operation} (Histogram): Backoff duration by operation
//   - etsy_retry_exhausted_total{operation} (Counter): Operations that ran out of attempts
//
// Quota Metrics (pkg/ratelimit):
//   - etsy_quota_remaining (Gauge): Requests left in the current quota window
//   - etsy_quota_low_total (Counter): Responses observed with the quota below 5% or exhausted
//   - etsy_quota_blocks_total (Counter): Requests held back while the quota was exhausted
//
// Example Prometheus Queries:
//
//   # Rate limit pressure
//   rate(etsy_retries_total[5m])
//
//   # Quota nearly used up
//   etsy_quota_remaining < 500
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(etsy_request_duration_seconds_bucket[5m]))
