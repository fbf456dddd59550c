// Package metrics defines and registers the custom Prometheus metrics of the
// travel planner catalog. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default registry on package load via
// promauto, and served by the /metrics route together with the echo request
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "travelplanner"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "throttled" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// RequestRejectionsTotal counts requests rejected with a client error.
// Label:
//   - reason: "unauthenticated", "forbidden", "not_found", "invalid_id",
//     "validation", "conflict", "too_many_attempts"
var RequestRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "request_rejections_total",
		Help:      "Total number of requests rejected by the error handler, by reason.",
	},
	[]string{"reason"},
)

// RoleChangesTotal counts successful role assignments.
// Label:
//   - change: "promote" or "demote"
var RoleChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_changes_total",
		Help:      "Total number of successful promote/demote operations.",
	},
	[]string{"change"},
)

// ── Destination metrics ───────────────────────────────────────────────────────

// DestinationMutationsTotal counts successful destination writes.
// Label:
//   - operation: "create", "update" or "delete"
var DestinationMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "destination_mutations_total",
		Help:      "Total number of successful destination writes, by operation.",
	},
	[]string{"operation"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by how the dispatcher handled them.
// Label:
//   - result: "stored", "failed" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events handled by the dispatcher, by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditWriteDuration measures a single audit write.
var AuditWriteDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_write_duration_seconds",
		Help:      "Duration of a single audit event write.",
		Buckets:   prometheus.DefBuckets,
	},
)
