package store

import (
	"time"

	"github.com/bussywales/rentnow-sub000/internal/model"
)

// CreateBookingRequest carries a guest's date-range request for a property.
type CreateBookingRequest struct {
	PropertyID string
	GuestID    string
	CheckIn    time.Time
	CheckOut   time.Time
}

// Window is an optional [From, To) query range. A nil bound is unbounded.
type Window struct {
	From *time.Time
	To   *time.Time
}

// BlockedRanges is the read-side availability projection for one property:
// date ranges held by active bookings plus the host's manual blocks.
type BlockedRanges struct {
	Bookings []model.ShortletBooking `json:"bookings"`
	Blocks   []model.ShortletBlock   `json:"blocks"`
}

// MarkPaidRequest carries the operator metadata for a payout transition.
type MarkPaidRequest struct {
	Method    string
	Reference string
	Note      string
	ActorID   string
}

// CreateBlockRequest carries a host's manual unavailable range.
type CreateBlockRequest struct {
	PropertyID string
	HostID     string
	DateFrom   time.Time
	DateTo     time.Time
	Reason     string
}
