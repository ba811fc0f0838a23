package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bussywales/rentnow-sub000/internal/booking"
	"github.com/bussywales/rentnow-sub000/internal/model"
)

// CreateBooking validates the request against the property settings and
// atomically checks the date range and inserts the new booking. The overlap
// check and the insert run inside one serializable transaction; on Postgres
// the exclusion constraint on (property_id, daterange) backs the same
// invariant at the schema level.
func (s *gormStore) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.ShortletBooking, error) {
	now := time.Now().UTC()

	settings, err := s.Settings(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	nights, err := booking.ValidateRequest(settings, req.CheckIn, req.CheckOut, now)
	if err != nil {
		return nil, err
	}

	total, snapshot := booking.Quote(settings, nights)

	bk := &model.ShortletBooking{
		PropertyID:       req.PropertyID,
		GuestID:          req.GuestID,
		HostID:           settings.HostID,
		CheckIn:          req.CheckIn,
		CheckOut:         req.CheckOut,
		Nights:           nights,
		TotalAmountMinor: total,
		Currency:         settings.Currency,
		PricingSnapshot:  booking.EncodeSnapshot(snapshot),
	}
	if settings.Mode == model.ModeRequest {
		bk.Status = model.StatusPending
	} else {
		bk.Status = model.StatusPendingPayment
		expires := now.Add(s.paymentWindow)
		bk.ExpiresAt = &expires
	}

	// Prep days widen the conflict window on both sides of the request.
	conflictFrom := req.CheckIn.AddDate(0, 0, -settings.PrepDays)
	conflictTo := req.CheckOut.AddDate(0, 0, settings.PrepDays)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var held int64
		if err := tx.Model(&model.ShortletBooking{}).
			Where("property_id = ? AND status IN ?", req.PropertyID, model.ActiveStatuses()).
			Where("check_in < ? AND check_out > ?", conflictTo, conflictFrom).
			Count(&held).Error; err != nil {
			return fmt.Errorf("check booking overlap: %w", err)
		}
		if held > 0 {
			return booking.ErrDateRangeUnavailable
		}

		var blocked int64
		if err := tx.Model(&model.ShortletBlock{}).
			Where("property_id = ?", req.PropertyID).
			Where("date_from < ? AND date_to > ?", conflictTo, conflictFrom).
			Count(&blocked).Error; err != nil {
			return fmt.Errorf("check block overlap: %w", err)
		}
		if blocked > 0 {
			return booking.ErrDateRangeUnavailable
		}

		return tx.Create(bk).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if err != nil {
		if errors.Is(err, booking.ErrDateRangeUnavailable) || isRangeConstraintViolation(err) {
			return nil, booking.ErrDateRangeUnavailable
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return bk, nil
}

// isRangeConstraintViolation detects the Postgres exclusion-constraint
// rejection (SQLSTATE 23P01) so a race the in-transaction check missed
// still surfaces as a date conflict, not a storage failure.
func isRangeConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23P01") || strings.Contains(msg, "shortlet_bookings_no_overlap")
}

// GetBooking loads one booking by id.
func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.ShortletBooking, error) {
	var bk model.ShortletBooking
	err := s.db.WithContext(ctx).First(&bk, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	return &bk, nil
}

// ConfirmPayment moves a pending_payment booking to confirmed. The update
// is keyed on the expected status; a booking the sweeper already expired
// (or anything else) is rejected with ErrInvalidStatus.
func (s *gormStore) ConfirmPayment(ctx context.Context, bookingID, reference string) (*model.ShortletBooking, error) {
	res := s.db.WithContext(ctx).Model(&model.ShortletBooking{}).
		Where("id = ? AND status = ?", bookingID, model.StatusPendingPayment).
		Updates(map[string]any{
			"status":            model.StatusConfirmed,
			"payment_reference": reference,
			"expires_at":        nil,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("confirm payment for booking %s: %w", bookingID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetBooking(ctx, bookingID); err != nil {
			return nil, err
		}
		return nil, booking.ErrInvalidStatus
	}
	return s.GetBooking(ctx, bookingID)
}

// RespondToBooking applies a host accept or decline to a pending
// request-mode booking.
func (s *gormStore) RespondToBooking(ctx context.Context, bookingID, hostID string, accept bool) (*model.ShortletBooking, error) {
	bk, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.HostID != hostID {
		return nil, booking.ErrForbidden
	}

	ev := booking.EventHostDecline
	if accept {
		ev = booking.EventHostAccept
	}
	next, err := booking.NextStatus(bk.Status, ev)
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&model.ShortletBooking{}).
		Where("id = ? AND status = ?", bookingID, bk.Status).
		Updates(map[string]any{"status": next})
	if res.Error != nil {
		return nil, fmt.Errorf("respond to booking %s: %w", bookingID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, booking.ErrInvalidStatus
	}
	return s.GetBooking(ctx, bookingID)
}

// CancelBooking cancels an active booking on behalf of the guest, the host,
// or an admin. An eligible payout derived from the booking is deleted in
// the same transaction; a paid payout is left alone.
func (s *gormStore) CancelBooking(ctx context.Context, bookingID, actorID string, isAdmin bool) (*model.ShortletBooking, error) {
	bk, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && actorID != bk.GuestID && actorID != bk.HostID {
		return nil, booking.ErrForbidden
	}

	next, err := booking.NextStatus(bk.Status, booking.EventCancel)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ShortletBooking{}).
			Where("id = ? AND status = ?", bookingID, bk.Status).
			Updates(map[string]any{
				"status":          next,
				"refund_required": booking.RefundRequired(bk.Status),
				"expires_at":      nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return booking.ErrInvalidStatus
		}
		return tx.Where("booking_id = ? AND status = ?", bookingID, model.PayoutEligible).
			Delete(&model.ShortletPayout{}).Error
	})
	if err != nil {
		if errors.Is(err, booking.ErrInvalidStatus) {
			return nil, booking.ErrInvalidStatus
		}
		return nil, fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}
	return s.GetBooking(ctx, bookingID)
}

// SweepExpiredBookings expires every pending_payment booking whose payment
// deadline has passed, releasing its date hold. The bulk update keeps the
// status predicate as an optimistic guard, so a booking confirmed between
// the select and the update is left untouched. Running the sweep twice in
// a row is a no-op on the second run.
func (s *gormStore) SweepExpiredBookings(ctx context.Context, now time.Time, limit int) ([]model.ShortletBooking, error) {
	var candidates []model.ShortletBooking
	q := s.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", model.StatusPendingPayment, now).
		Order("expires_at")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("select expired bookings: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	for i, bk := range candidates {
		ids[i] = bk.ID
	}

	res := s.db.WithContext(ctx).Model(&model.ShortletBooking{}).
		Where("id IN ? AND status = ?", ids, model.StatusPendingPayment).
		Updates(map[string]any{
			"status":          model.StatusExpired,
			"refund_required": true,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("expire bookings: %w", res.Error)
	}

	// Re-read so callers only see the rows this sweep actually flipped.
	var swept []model.ShortletBooking
	if err := s.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, model.StatusExpired).
		Find(&swept).Error; err != nil {
		return nil, fmt.Errorf("reload expired bookings: %w", err)
	}
	return swept, nil
}

// CompleteFinishedStays moves confirmed bookings whose stay has concluded
// to completed. Derived transition, not a guest or host action.
func (s *gormStore) CompleteFinishedStays(ctx context.Context, now time.Time, limit int) (int64, error) {
	var ids []string
	q := s.db.WithContext(ctx).Model(&model.ShortletBooking{}).
		Where("status = ? AND check_out <= ?", model.StatusConfirmed, now).
		Order("check_out")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("select finished stays: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Model(&model.ShortletBooking{}).
		Where("id IN ? AND status = ?", ids, model.StatusConfirmed).
		Update("status", model.StatusCompleted)
	if res.Error != nil {
		return 0, fmt.Errorf("complete finished stays: %w", res.Error)
	}
	return res.RowsAffected, nil
}
