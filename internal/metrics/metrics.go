package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "waylins",
			Name:      "booking_created_total",
			Help:      "Count of bookings created by payment method.",
		},
		[]string{"method"},
	)

	bookingCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "waylins",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled by clients or the admin.",
		},
	)

	bookingDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "waylins",
			Name:      "booking_deleted_total",
			Help:      "Count of booking records permanently deleted.",
		},
	)

	paymentToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "waylins",
			Name:      "payment_status_toggled_total",
			Help:      "Count of manual payment status toggles by resulting status.",
		},
		[]string{"status"},
	)

	paymentMismatch = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "waylins",
			Name:      "payment_recorded_booking_failed_total",
			Help:      "Count of payments captured without a recorded booking.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "waylins",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated, bookingCancelled, bookingDeleted,
			paymentToggled, paymentMismatch, httpRequests,
		)
	})
}

func IncBookingCreated(method string) {
	bookingCreated.WithLabelValues(method).Inc()
}

func IncBookingCancelled() {
	bookingCancelled.Inc()
}

func IncBookingDeleted() {
	bookingDeleted.Inc()
}

func IncPaymentToggled(status string) {
	paymentToggled.WithLabelValues(status).Inc()
}

func IncPaymentMismatch() {
	paymentMismatch.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
