// Package metrics defines the Prometheus metrics exported by the service.
// Metrics register with the default registry on package init through promauto
// and are served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "petbuddy"

// BookingsCreatedTotal counts booking creation attempts.
// Label:
//   - result: "created", "rejected" (validation or unresolved reference), "error"
var BookingsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_created_total",
		Help:      "Total number of booking creation attempts, by result.",
	},
	[]string{"result"},
)

// PostingCloseTotal counts posting close attempts.
// Labels:
//   - kind: "job" or "sitter"
//   - result: "closed", "noop" (already closed or unknown id), "error"
var PostingCloseTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posting_close_total",
		Help:      "Total number of posting close attempts, by posting kind and result.",
	},
	[]string{"kind", "result"},
)

// ReferenceResolutionsTotal counts identifier normalizations.
// Labels:
//   - table: "users" or "dogs"
//   - path: "fast" (numeric literal accepted), "lookup", "miss"
var ReferenceResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reference_resolutions_total",
		Help:      "Total number of identifier normalizations, by table and resolution path.",
	},
	[]string{"table", "path"},
)

// EventsPublishedTotal counts booking events handed to the broker.
// Label:
//   - result: "ok" or "error"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of booking events published, by result.",
	},
	[]string{"result"},
)
