package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Core operation metrics exported to Prometheus
var (
	EngagementLogsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_logs_total",
			Help: "Total number of engagement log entries written",
		},
		[]string{"type"},
	)

	EngagementLogFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_log_failures_total",
			Help: "Total number of engagement log writes that failed and were swallowed",
		},
		[]string{"type"},
	)

	AffinityPingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affinity_pings_total",
			Help: "Total number of affinity ping attempts by outcome",
		},
		[]string{"result"}, // "sent", "rejected_self", "rejected_quota", "rejected_duplicate"
	)

	NotificationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type"},
	)

	NotificationsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_suppressed_total",
			Help: "Total number of notifications suppressed by unread dedup",
		},
		[]string{"type"},
	)
)
