// Package metrics holds the Prometheus collectors shared across the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts handled requests.
	// Labels: method, route (gin full path, "unmatched" for 404s), status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// RecipeWritesTotal counts recipe transactions.
	// Labels: operation (create, update, delete), outcome (success, invalid, error).
	RecipeWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipe_writes_total",
			Help: "Total number of recipe write transactions",
		},
		[]string{"operation", "outcome"},
	)

	// RelationChangesTotal counts favorite, cart and follow toggles.
	// Labels: relation (favorite, shopping_cart, follow), action (add, remove), outcome.
	RelationChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relation_changes_total",
			Help: "Total number of favorite, shopping cart and follow changes",
		},
		[]string{"relation", "action", "outcome"},
	)

	ShoppingListLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foodgram_shopping_list_lines",
			Help:    "Number of aggregated lines per downloaded shopping list",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)

	// ImageUploadsTotal labels: backend (local, s3), outcome (success, rejected, error).
	ImageUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_image_uploads_total",
			Help: "Total number of recipe image uploads",
		},
		[]string{"backend", "outcome"},
	)

	TokenRevocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_token_revocations_total",
			Help: "Total number of access tokens revoked on logout",
		},
		[]string{"backend", "outcome"},
	)

	// RateLimitedTotal counts requests rejected with 429.
	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"backend"},
	)
)

// Outcome collapses an error into the outcome label used above.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return "error"
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
