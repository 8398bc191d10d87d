package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fitsched",
			Name:      "booking_created_total",
			Help:      "Count of bookings created.",
		},
	)

	bookingConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fitsched",
			Name:      "booking_conflict_total",
			Help:      "Count of booking attempts rejected for slot conflicts.",
		},
	)

	bookingCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fitsched",
			Name:      "booking_completed_total",
			Help:      "Count of sessions marked completed.",
		},
	)

	cancellationDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitsched",
			Name:      "cancellation_decision_total",
			Help:      "Count of trainer decisions over cancellation requests.",
		},
		[]string{"decision"},
	)

	sessionCredits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitsched",
			Name:      "session_credits_total",
			Help:      "Count of session credit movements by kind.",
		},
		[]string{"kind"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitsched",
			Name:      "notifications_total",
			Help:      "Count of notification deliveries by result.",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitsched",
			Name:      "http_requests_total",
			Help:      "Count of API requests by route.",
		},
		[]string{"route"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated, bookingConflict, bookingCompleted,
			cancellationDecision, sessionCredits, notifications, httpRequests,
		)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingConflict() {
	bookingConflict.Inc()
}

func IncBookingCompleted() {
	bookingCompleted.Inc()
}

func IncCancellationDecision(decision string) {
	cancellationDecision.WithLabelValues(decision).Inc()
}

func IncSessionCredit(kind string) {
	sessionCredits.WithLabelValues(kind).Inc()
}

func IncNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}

func IncHTTP(route string) {
	httpRequests.WithLabelValues(route).Inc()
}
