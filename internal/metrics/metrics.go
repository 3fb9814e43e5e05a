// Package metrics содержит счётчики Prometheus доменных операций.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClaimsTotal — попытки взять лид, по результату:
	// claimed, duplicate, capacity_reached, insufficient_credits, error.
	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_claims_total",
		Help: "Lead claim attempts by result.",
	}, []string{"result"})

	// BookingsTotal — подтверждённые бронирования.
	BookingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lead_bookings_total",
		Help: "Confirmed lead bookings.",
	})

	// AssignmentsTotal — автораспределения лидов, по стратегии.
	AssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_assignments_total",
		Help: "Automatic lead assignments by strategy.",
	}, []string{"strategy"})

	// PlansExpiredTotal — тарифы, снятые зачисткой.
	PlansExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plans_expired_total",
		Help: "Subscription plans expired by the sweeper.",
	})
)
