package booking

import "errors"

// Sentinel errors for the booking and payout lifecycle. Handlers match
// these with errors.Is to pick the response; the store wraps storage
// failures separately so they surface as a generic unavailable condition.
var (
	ErrInvalidDateRange     = errors.New("check-in must be before check-out")
	ErrBelowMinimumNights   = errors.New("stay is below the minimum nights")
	ErrAboveMaximumNights   = errors.New("stay is above the maximum nights")
	ErrAdvanceNoticeNotMet  = errors.New("check-in does not meet the advance notice requirement")
	ErrDateRangeUnavailable = errors.New("date range is unavailable")
	ErrInvalidStatus        = errors.New("invalid booking status for this transition")
	ErrInvalidPayoutStatus  = errors.New("invalid payout status for this transition")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
)
