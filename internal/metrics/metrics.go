// Package metrics defines every custom Prometheus metric of the admin console:
// the client-side data layer and the reference backend share one namespace.
//
// All collectors are registered with the default registry at package init
// through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "admin_console"

// ── Client data layer ────────────────────────────────────────────────────────

// APIRequestsTotal counts outbound API calls.
// Labels:
//   - method: HTTP method
//   - outcome: "2xx", "4xx", "5xx" or "network"
var APIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "api_requests_total",
		Help:      "Total number of API requests issued by the data layer.",
	},
	[]string{"method", "outcome"},
)

// APIRequestDuration measures round-trip latency of outbound API calls.
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "api_request_duration_seconds",
		Help:      "Latency of API requests issued by the data layer.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// CSRFResolutionsTotal counts where the CSRF token came from.
// Label:
//   - source: "cookie", "meta", "endpoint" or "none"
var CSRFResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "csrf_resolutions_total",
		Help:      "CSRF token resolutions by source.",
	},
	[]string{"source"},
)

// LifecycleFallbacksTotal counts suspend/activate calls that had to use the
// generic PATCH because the dedicated endpoint failed.
var LifecycleFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "lifecycle_fallbacks_total",
		Help:      "Suspend/activate calls served by the PATCH fallback.",
	},
	[]string{"action"},
)

// StaleResponsesDroppedTotal counts list responses discarded because a newer
// fetch had already been applied.
var StaleResponsesDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "client",
		Name:      "stale_responses_dropped_total",
		Help:      "List responses ignored because a newer one was already applied.",
	},
	[]string{"entity"},
)

// ── Reference backend ────────────────────────────────────────────────────────

// UsersCreatedTotal counts accounts created through the backend, by user type.
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "users_created_total",
		Help:      "Total number of users created, by user type.",
	},
	[]string{"user_type"},
)

// LifecycleEventsTotal counts processed lifecycle events.
// Labels:
//   - action: "suspended" or "activated"
//   - result: "ok" or "error"
var LifecycleEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "lifecycle_events_total",
		Help:      "Lifecycle events processed by the dispatcher workers.",
	},
	[]string{"action", "result"},
)

// LifecycleQueueDepth tracks events waiting in each dispatcher worker channel.
var LifecycleQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "lifecycle_queue_depth",
		Help:      "Current number of lifecycle events pending per worker.",
	},
	[]string{"worker_id"},
)

// LoginsTotal counts login attempts by result ("ok", "invalid", "disabled").
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "logins_total",
		Help:      "Login attempts handled by the backend.",
	},
	[]string{"result"},
)

// OutcomeLabel buckets an HTTP status for APIRequestsTotal.
func OutcomeLabel(status int) string {
	switch {
	case status == 0:
		return "network"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
