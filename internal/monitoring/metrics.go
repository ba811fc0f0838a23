package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlet_bookings_created_total",
			Help: "Bookings created, by booking mode",
		},
		[]string{"mode"},
	)

	bookingConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlet_booking_conflicts_total",
			Help: "Booking attempts rejected because the date range was held",
		},
	)

	bookingValidationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlet_booking_validation_rejections_total",
			Help: "Booking attempts rejected by a creation guard",
		},
		[]string{"reason"},
	)

	bookingsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlet_bookings_expired_total",
			Help: "Bookings expired by the sweeper",
		},
	)

	staysCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlet_stays_completed_total",
			Help: "Confirmed bookings moved to completed",
		},
	)

	payoutsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlet_payouts_created_total",
			Help: "Eligible payout records created",
		},
	)

	payoutsPaid = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortlet_payouts_paid_total",
			Help: "Payouts marked paid (first successful transition only)",
		},
	)
)

func BookingCreated(mode string) { bookingsCreated.WithLabelValues(mode).Inc() }

func BookingConflict() { bookingConflicts.Inc() }

func BookingValidationRejected(reason string) {
	bookingValidationRejections.WithLabelValues(reason).Inc()
}

func BookingsExpired(n int) { bookingsExpired.Add(float64(n)) }

func StaysCompleted(n int64) { staysCompleted.Add(float64(n)) }

func PayoutsCreated(n int) { payoutsCreated.Add(float64(n)) }

func PayoutPaid() { payoutsPaid.Inc() }
