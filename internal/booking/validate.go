package booking

import (
	"encoding/json"
	"time"

	"github.com/bussywales/rentnow-sub000/internal/model"
)

// Nights returns the stay length for [checkIn, checkOut) in whole days.
func Nights(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn).Hours() / 24)
}

// ValidateRequest applies the creation guards: date ordering, min/max
// nights, and advance notice. It returns the computed nights on success.
func ValidateRequest(s *model.ShortletSettings, checkIn, checkOut, now time.Time) (int, error) {
	if !checkIn.Before(checkOut) {
		return 0, ErrInvalidDateRange
	}
	nights := Nights(checkIn, checkOut)
	if nights < s.MinNights {
		return 0, ErrBelowMinimumNights
	}
	if s.MaxNights > 0 && nights > s.MaxNights {
		return 0, ErrAboveMaximumNights
	}
	if s.AdvanceNoticeHours > 0 {
		notice := time.Duration(s.AdvanceNoticeHours) * time.Hour
		if checkIn.Sub(now) < notice {
			return 0, ErrAdvanceNoticeNotMet
		}
	}
	return nights, nil
}

// PricingSnapshot is the pricing breakdown captured at creation. It is
// stored verbatim on the booking and never recomputed.
type PricingSnapshot struct {
	NightlyRateMinor int64  `json:"nightly_rate_minor"`
	CleaningFeeMinor int64  `json:"cleaning_fee_minor"`
	DepositMinor     int64  `json:"deposit_minor"`
	Nights           int    `json:"nights"`
	TotalMinor       int64  `json:"total_minor"`
	Currency         string `json:"currency"`
}

// Quote computes the booking total in minor units and the snapshot to
// persist with it. The deposit is settled by the payment provider and is
// not part of the total.
func Quote(s *model.ShortletSettings, nights int) (int64, PricingSnapshot) {
	total := s.NightlyRateMinor*int64(nights) + s.CleaningFeeMinor
	return total, PricingSnapshot{
		NightlyRateMinor: s.NightlyRateMinor,
		CleaningFeeMinor: s.CleaningFeeMinor,
		DepositMinor:     s.DepositMinor,
		Nights:           nights,
		TotalMinor:       total,
		Currency:         s.Currency,
	}
}

// EncodeSnapshot serializes a pricing snapshot for storage.
func EncodeSnapshot(snap PricingSnapshot) string {
	raw, err := json.Marshal(snap)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// EligibleForPayout is true only when the booking kept (or finished) its
// confirmed stay and the check-out date has passed.
func EligibleForPayout(status model.BookingStatus, checkOut, now time.Time) bool {
	if status != model.StatusConfirmed && status != model.StatusCompleted {
		return false
	}
	return checkOut.Before(now) || checkOut.Equal(now)
}
