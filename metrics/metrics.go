package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BookingsCreated The total number of bookings stored (counter)
	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourbot",
			Name:      "bookings_created_total",
			Help:      "The total number of bookings stored",
		},
		[]string{"location"},
	)

	// BookingsRejected confirmations that did not produce a booking, by reason (counter)
	BookingsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourbot",
			Name:      "bookings_rejected_total",
			Help:      "The total number of confirmations that did not produce a booking",
		},
		[]string{"reason"},
	)

	// ConversationInputs inputs handled by the conversation engine, by state and outcome (counter)
	ConversationInputs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourbot",
			Name:      "conversation_inputs_total",
			Help:      "The total number of inputs handled by the conversation engine",
		},
		[]string{"state", "outcome"},
	)

	// NotificationsSent operator notifications by delivery result (counter)
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tourbot",
			Name:      "operator_notifications_total",
			Help:      "The total number of operator notifications attempted",
		},
		[]string{"result"},
	)

	// UpdatesThrottled inbound chat updates dropped by the per-user rate limiter (counter)
	UpdatesThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tourbot",
			Name:      "updates_throttled_total",
			Help:      "The total number of inbound updates dropped by rate limiting",
		},
	)
)
