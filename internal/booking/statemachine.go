package booking

import (
	"github.com/bussywales/rentnow-sub000/internal/model"
)

// Event is something that can move a booking through its lifecycle.
type Event string

const (
	EventPaymentConfirmed Event = "payment_confirmed"
	EventExpire           Event = "expire"
	EventHostAccept       Event = "host_accept"
	EventHostDecline      Event = "host_decline"
	EventCancel           Event = "cancel"
	EventStayCompleted    Event = "stay_completed"
)

// transitions is the full legal transition table. Anything absent here is
// rejected with ErrInvalidStatus and must not touch stored state.
var transitions = map[model.BookingStatus]map[Event]model.BookingStatus{
	model.StatusPendingPayment: {
		EventPaymentConfirmed: model.StatusConfirmed,
		EventExpire:           model.StatusExpired,
		EventCancel:           model.StatusCancelled,
	},
	model.StatusPending: {
		EventHostAccept:  model.StatusConfirmed,
		EventHostDecline: model.StatusDeclined,
		EventCancel:      model.StatusCancelled,
	},
	model.StatusConfirmed: {
		EventCancel:        model.StatusCancelled,
		EventStayCompleted: model.StatusCompleted,
	},
}

// NextStatus resolves the status a booking moves to when ev fires, or
// ErrInvalidStatus when the pair is not in the table.
func NextStatus(from model.BookingStatus, ev Event) (model.BookingStatus, error) {
	if evs, ok := transitions[from]; ok {
		if to, ok := evs[ev]; ok {
			return to, nil
		}
	}
	return "", ErrInvalidStatus
}

// CanTransition reports whether ev is legal from the given status.
func CanTransition(from model.BookingStatus, ev Event) bool {
	_, err := NextStatus(from, ev)
	return err == nil
}

// RefundRequired reports whether leaving the given status owes the guest a
// refund check. Any booking that reached a reservable state may have had a
// payment attempt against it.
func RefundRequired(from model.BookingStatus) bool {
	switch from {
	case model.StatusPendingPayment, model.StatusPending, model.StatusConfirmed:
		return true
	}
	return false
}
