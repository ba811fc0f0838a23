package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bussywales/rentnow-sub000/internal/booking"
	"github.com/bussywales/rentnow-sub000/internal/model"
)

// EnsurePayout creates an eligible payout for the booking if none exists.
// The unique index on booking_id makes repeated calls converge to a single
// row, so the daily reconciliation job can call this blindly.
func (s *gormStore) EnsurePayout(ctx context.Context, bookingID, hostID string, amountMinor int64, currency string) error {
	payout := &model.ShortletPayout{
		BookingID:   bookingID,
		HostID:      hostID,
		AmountMinor: amountMinor,
		Currency:    currency,
		Status:      model.PayoutEligible,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "booking_id"}},
		DoNothing: true,
	}).Create(payout).Error
	if err != nil {
		return fmt.Errorf("ensure payout for booking %s: %w", bookingID, err)
	}
	return nil
}

// ReconcilePayouts creates payouts for every booking that has become
// eligible (confirmed or completed, stay concluded) and has none yet.
// Returns the number of bookings handled this pass.
func (s *gormStore) ReconcilePayouts(ctx context.Context, now time.Time, limit int) (int, error) {
	payoutFor := s.db.Model(&model.ShortletPayout{}).Select("booking_id")

	var eligible []model.ShortletBooking
	q := s.db.WithContext(ctx).
		Where("status IN ? AND check_out <= ?",
			[]model.BookingStatus{model.StatusConfirmed, model.StatusCompleted}, now).
		Where("id NOT IN (?)", payoutFor).
		Order("check_out")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&eligible).Error; err != nil {
		return 0, fmt.Errorf("select payout-eligible bookings: %w", err)
	}

	created := 0
	for _, bk := range eligible {
		if !booking.EligibleForPayout(bk.Status, bk.CheckOut, now) {
			continue
		}
		if err := s.EnsurePayout(ctx, bk.ID, bk.HostID, bk.TotalAmountMinor, bk.Currency); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// MarkPayoutPaid transitions a payout from eligible to paid exactly once
// and appends one audit entry. A retry against an already-paid payout is a
// successful no-op: the existing record comes back with alreadyPaid true.
func (s *gormStore) MarkPayoutPaid(ctx context.Context, payoutID string, req MarkPaidRequest) (*model.ShortletPayout, bool, error) {
	now := time.Now().UTC()
	alreadyPaid := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ShortletPayout{}).
			Where("id = ? AND status = ?", payoutID, model.PayoutEligible).
			Updates(map[string]any{
				"status":         model.PayoutPaid,
				"paid_at":        now,
				"paid_method":    req.Method,
				"paid_reference": req.Reference,
				"paid_by":        req.ActorID,
				"note":           req.Note,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing model.ShortletPayout
			err := tx.First(&existing, "id = ?", payoutID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return booking.ErrNotFound
			}
			if err != nil {
				return err
			}
			if existing.Status == model.PayoutPaid {
				alreadyPaid = true
				return nil
			}
			return booking.ErrInvalidPayoutStatus
		}

		var paid model.ShortletPayout
		if err := tx.First(&paid, "id = ?", payoutID).Error; err != nil {
			return err
		}
		entry := model.PayoutAuditEntry{
			PayoutID:  payoutID,
			BookingID: paid.BookingID,
			ActorID:   req.ActorID,
			Action:    "mark_paid",
			Method:    req.Method,
			Reference: req.Reference,
			Note:      req.Note,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) || errors.Is(err, booking.ErrInvalidPayoutStatus) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("mark payout %s paid: %w", payoutID, err)
	}

	var payout model.ShortletPayout
	if err := s.db.WithContext(ctx).First(&payout, "id = ?", payoutID).Error; err != nil {
		return nil, false, fmt.Errorf("reload payout %s: %w", payoutID, err)
	}
	return &payout, alreadyPaid, nil
}

// ListPayouts is the payout history projection. An empty hostID returns
// every host's payouts (admin view).
func (s *gormStore) ListPayouts(ctx context.Context, hostID string, eligibleOnly bool) ([]model.ShortletPayout, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if hostID != "" {
		q = q.Where("host_id = ?", hostID)
	}
	if eligibleOnly {
		q = q.Where("status = ?", model.PayoutEligible)
	}
	var payouts []model.ShortletPayout
	if err := q.Find(&payouts).Error; err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return payouts, nil
}
