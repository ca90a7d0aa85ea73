package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SettlementsTotal counts completed settlements by transaction type.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Number of completed settlement events",
	}, []string{"type"})

	// SettlementVolume accumulates gross settled amounts by transaction type.
	SettlementVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_volume_total",
		Help: "Gross settled amount by transaction type",
	}, []string{"type"})

	// AdminActionsTotal counts executed admin actions by type and outcome.
	AdminActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_actions_total",
		Help: "Number of executed admin actions",
	}, []string{"action_type", "outcome"})

	// SettlementRequestsTotal counts requests hitting money-moving endpoints,
	// including ones later rejected by state or party checks.
	SettlementRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_requests_total",
		Help: "Number of requests to settlement endpoints",
	}, []string{"permission"})

	// NotificationsForwardedTotal counts dispatcher forwards by result.
	NotificationsForwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_forwarded_total",
		Help: "Number of notifications forwarded to the dispatcher",
	}, []string{"status"})

	// StatusTransitionsTotal counts contract status transitions.
	StatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contract_status_transitions_total",
		Help: "Number of contract status transitions",
	}, []string{"from", "to"})
)
