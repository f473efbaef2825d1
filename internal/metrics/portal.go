// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus instrumentation for the portal daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_refresh_total",
		Help: "Poll cycles by mode and outcome",
	}, []string{"mode", "outcome"}) // mode=interactive|silent outcome=success|failure

	staleResponsesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_stale_responses_discarded_total",
		Help: "Responses dropped because a newer poll was already applied",
	})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_status_transitions_total",
		Help: "Observed effective-status transitions by from/to state",
	}, []string{"from", "to"})

	notificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_notifications_total",
		Help: "Status-change notifications emitted to subscribers",
	})

	storeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_store_requests_total",
		Help: "Session store requests by method and outcome",
	}, []string{"method", "outcome"})

	sessionsByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portal_sessions",
		Help: "Sessions by effective status (last applied poll)",
	}, []string{"status"})

	bulkDeleteResyncs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_bulk_delete_resyncs_total",
		Help: "Full re-fetches forced by partially failed bulk deletes",
	})
)

// Refresh records the outcome of one poll cycle.
func Refresh(mode, outcome string) {
	refreshTotal.WithLabelValues(mode, outcome).Inc()
}

// StaleResponseDiscarded counts a superseded poll response.
func StaleResponseDiscarded() {
	staleResponsesDiscarded.Inc()
}

// StatusTransition records one effective-status change.
func StatusTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

// NotificationEmitted counts a delivered status-change notification.
func NotificationEmitted() {
	notificationsTotal.Inc()
}

// StoreRequest records one store call by method and outcome.
func StoreRequest(method, outcome string) {
	storeRequests.WithLabelValues(method, outcome).Inc()
}

// SetSessions publishes the per-status session counts of the latest poll.
func SetSessions(counts map[string]int) {
	sessionsByStatus.Reset()
	for status, n := range counts {
		sessionsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// BulkDeleteResync counts a re-sync triggered by a partial bulk-delete failure.
func BulkDeleteResync() {
	bulkDeleteResyncs.Inc()
}
