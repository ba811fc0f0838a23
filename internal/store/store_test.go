package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bussywales/rentnow-sub000/internal/booking"
	"github.com/bussywales/rentnow-sub000/internal/db"
	"github.com/bussywales/rentnow-sub000/internal/model"
)

// newTestStore opens a fresh in-memory SQLite database. The pool is capped
// at one connection so concurrent writers serialize the way a single
// Postgres row lock would.
func newTestStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))

	return NewGormStore(gormDB, 30*time.Minute), gormDB
}

// day returns UTC midnight offset whole days from today.
func day(offset int) time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, offset)
}

func seedSettings(t *testing.T, gormDB *gorm.DB, mode model.BookingMode) *model.ShortletSettings {
	t.Helper()
	settings := &model.ShortletSettings{
		PropertyID:       "prop-1",
		HostID:           "host-1",
		Mode:             mode,
		NightlyRateMinor: 50_000,
		CleaningFeeMinor: 10_000,
		Currency:         "NGN",
		MinNights:        2,
		MaxNights:        14,
	}
	require.NoError(t, gormDB.Create(settings).Error)
	return settings
}

func TestCreateBooking_InstantMode(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	bk, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1",
		GuestID:    "guest-1",
		CheckIn:    day(10),
		CheckOut:   day(13),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, bk.ID)
	assert.Equal(t, model.StatusPendingPayment, bk.Status)
	assert.Equal(t, 3, bk.Nights)
	assert.Equal(t, int64(160_000), bk.TotalAmountMinor) // 3 * 50k + 10k
	assert.Equal(t, "NGN", bk.Currency)
	assert.Equal(t, "host-1", bk.HostID)
	require.NotNil(t, bk.ExpiresAt)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), *bk.ExpiresAt, 5*time.Second)

	var snap booking.PricingSnapshot
	require.NoError(t, json.Unmarshal([]byte(bk.PricingSnapshot), &snap))
	assert.Equal(t, int64(160_000), snap.TotalMinor)
	assert.Equal(t, 3, snap.Nights)
}

func TestCreateBooking_RequestMode(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeRequest)

	bk, err := s.CreateBooking(context.Background(), CreateBookingRequest{
		PropertyID: "prop-1",
		GuestID:    "guest-1",
		CheckIn:    day(10),
		CheckOut:   day(12),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, bk.Status)
	assert.Nil(t, bk.ExpiresAt, "request mode bookings have no payment deadline")
}

func TestCreateBooking_Guards(t *testing.T) {
	s, gormDB := newTestStore(t)
	settings := seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	_, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "g", CheckIn: day(10), CheckOut: day(11),
	})
	assert.ErrorIs(t, err, booking.ErrBelowMinimumNights)

	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "g", CheckIn: day(10), CheckOut: day(40),
	})
	assert.ErrorIs(t, err, booking.ErrAboveMaximumNights)

	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "g", CheckIn: day(12), CheckOut: day(10),
	})
	assert.ErrorIs(t, err, booking.ErrInvalidDateRange)

	require.NoError(t, gormDB.Model(settings).Update("advance_notice_hours", 24*30).Error)
	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "g", CheckIn: day(10), CheckOut: day(13),
	})
	assert.ErrorIs(t, err, booking.ErrAdvanceNoticeNotMet)

	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "no-such-property", GuestID: "g", CheckIn: day(10), CheckOut: day(13),
	})
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestCreateBooking_OverlapRejected(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	first, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(10), CheckOut: day(14),
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusPendingPayment, first.Status)

	// Overlapping request loses even against a pending_payment hold.
	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-2", CheckIn: day(12), CheckOut: day(16),
	})
	assert.ErrorIs(t, err, booking.ErrDateRangeUnavailable)

	// Back-to-back is fine: check_out is an exclusive bound.
	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-3", CheckIn: day(14), CheckOut: day(17),
	})
	assert.NoError(t, err)
}

func TestCreateBooking_BlockConflict(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	_, err := s.CreateBlock(ctx, CreateBlockRequest{
		PropertyID: "prop-1", HostID: "host-1", DateFrom: day(20), DateTo: day(25), Reason: "maintenance",
	})
	require.NoError(t, err)

	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(22), CheckOut: day(27),
	})
	assert.ErrorIs(t, err, booking.ErrDateRangeUnavailable)
}

func TestCreateBooking_PrepDaysWidenConflict(t *testing.T) {
	s, gormDB := newTestStore(t)
	settings := seedSettings(t, gormDB, model.ModeInstant)
	require.NoError(t, gormDB.Model(settings).Update("prep_days", 1).Error)
	ctx := context.Background()

	_, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(10), CheckOut: day(13),
	})
	require.NoError(t, err)

	// Back-to-back now conflicts because of the one-day turnaround buffer.
	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-2", CheckIn: day(13), CheckOut: day(16),
	})
	assert.ErrorIs(t, err, booking.ErrDateRangeUnavailable)

	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-2", CheckIn: day(14), CheckOut: day(17),
	})
	assert.NoError(t, err)
}

// TestCreateBooking_ConcurrentRequests fires overlapping creation attempts
// in parallel and requires that exactly one wins the date range.
func TestCreateBooking_ConcurrentRequests(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateBooking(ctx, CreateBookingRequest{
				PropertyID: "prop-1",
				GuestID:    fmt.Sprintf("guest-%d", i),
				CheckIn:    day(10),
				CheckOut:   day(14),
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, booking.ErrDateRangeUnavailable)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent request may win")

	var active int64
	require.NoError(t, gormDB.Model(&model.ShortletBooking{}).
		Where("property_id = ? AND status IN ?", "prop-1", model.ActiveStatuses()).
		Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestConfirmPayment(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	bk, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(10), CheckOut: day(13),
	})
	require.NoError(t, err)

	confirmed, err := s.ConfirmPayment(ctx, bk.ID, "TX1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.PaymentReference)
	assert.Equal(t, "TX1", *confirmed.PaymentReference)
	assert.Nil(t, confirmed.ExpiresAt, "hold deadline cleared on confirmation")

	// A second confirmation finds the booking out of pending_payment.
	_, err = s.ConfirmPayment(ctx, bk.ID, "TX2")
	assert.ErrorIs(t, err, booking.ErrInvalidStatus)

	_, err = s.ConfirmPayment(ctx, "missing", "TX3")
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestRespondToBooking(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeRequest)
	ctx := context.Background()

	bk, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(10), CheckOut: day(13),
	})
	require.NoError(t, err)

	_, err = s.RespondToBooking(ctx, bk.ID, "someone-else", true)
	assert.ErrorIs(t, err, booking.ErrForbidden)

	accepted, err := s.RespondToBooking(ctx, bk.ID, "host-1", true)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, accepted.Status)

	// Responding again is an illegal transition.
	_, err = s.RespondToBooking(ctx, bk.ID, "host-1", false)
	assert.ErrorIs(t, err, booking.ErrInvalidStatus)
}

func TestRespondToBooking_Decline(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeRequest)
	ctx := context.Background()

	bk, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(10), CheckOut: day(13),
	})
	require.NoError(t, err)

	declined, err := s.RespondToBooking(ctx, bk.ID, "host-1", false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeclined, declined.Status)

	// The declined range is released for other guests.
	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-2", CheckIn: day(10), CheckOut: day(13),
	})
	assert.NoError(t, err)
}

func TestCancelBooking(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	bk, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(10), CheckOut: day(13),
	})
	require.NoError(t, err)

	_, err = s.CancelBooking(ctx, bk.ID, "stranger", false)
	assert.ErrorIs(t, err, booking.ErrForbidden)

	cancelled, err := s.CancelBooking(ctx, bk.ID, "guest-1", false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.True(t, cancelled.RefundRequired)

	_, err = s.CancelBooking(ctx, bk.ID, "guest-1", false)
	assert.ErrorIs(t, err, booking.ErrInvalidStatus)

	_, err = s.CancelBooking(ctx, "missing", "guest-1", false)
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestCancelBooking_DeletesEligiblePayout(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	bk, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(10), CheckOut: day(13),
	})
	require.NoError(t, err)
	_, err = s.ConfirmPayment(ctx, bk.ID, "TX1")
	require.NoError(t, err)

	require.NoError(t, s.EnsurePayout(ctx, bk.ID, "host-1", bk.TotalAmountMinor, bk.Currency))

	_, err = s.CancelBooking(ctx, bk.ID, "host-1", false)
	require.NoError(t, err)

	var payouts int64
	require.NoError(t, gormDB.Model(&model.ShortletPayout{}).
		Where("booking_id = ?", bk.ID).Count(&payouts).Error)
	assert.Equal(t, int64(0), payouts, "an eligible payout must not survive the cancellation")
}

func TestSweepExpiredBookings(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	bk, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(10), CheckOut: day(13),
	})
	require.NoError(t, err)

	// Nothing to do while the payment window is open.
	swept, err := s.SweepExpiredBookings(ctx, time.Now().UTC(), 100)
	require.NoError(t, err)
	assert.Empty(t, swept)

	future := time.Now().UTC().Add(time.Hour)

	swept, err = s.SweepExpiredBookings(ctx, future, 100)
	require.NoError(t, err)
	require.Len(t, swept, 1)
	assert.Equal(t, bk.ID, swept[0].ID)
	assert.Equal(t, model.StatusExpired, swept[0].Status)
	assert.True(t, swept[0].RefundRequired)

	// Second run is a no-op.
	swept, err = s.SweepExpiredBookings(ctx, future, 100)
	require.NoError(t, err)
	assert.Empty(t, swept)

	// The expired hold no longer blocks the dates.
	_, err = s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-2", CheckIn: day(10), CheckOut: day(13),
	})
	assert.NoError(t, err)
}

func TestSweepLeavesConfirmedAlone(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	bk, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(10), CheckOut: day(13),
	})
	require.NoError(t, err)
	_, err = s.ConfirmPayment(ctx, bk.ID, "TX1")
	require.NoError(t, err)

	swept, err := s.SweepExpiredBookings(ctx, time.Now().UTC().Add(time.Hour), 100)
	require.NoError(t, err)
	assert.Empty(t, swept, "a confirmed booking is not pending_payment and must not expire")
}

func TestCompleteFinishedStaysAndReconcile(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	// A stay that concluded two days ago.
	bk, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(-5), CheckOut: day(-2),
	})
	require.NoError(t, err)
	_, err = s.ConfirmPayment(ctx, bk.ID, "TX1")
	require.NoError(t, err)

	now := time.Now().UTC()

	completed, err := s.CompleteFinishedStays(ctx, now, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), completed)

	reloaded, err := s.GetBooking(ctx, bk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, reloaded.Status)

	created, err := s.ReconcilePayouts(ctx, now, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// Reconciling again creates nothing new.
	created, err = s.ReconcilePayouts(ctx, now, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	payouts, err := s.ListPayouts(ctx, "host-1", true)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, bk.ID, payouts[0].BookingID)
	assert.Equal(t, bk.TotalAmountMinor, payouts[0].AmountMinor)
	assert.Equal(t, model.PayoutEligible, payouts[0].Status)
}

func TestEnsurePayout_Idempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsurePayout(ctx, "bk-1", "host-1", 160_000, "NGN"))
	require.NoError(t, s.EnsurePayout(ctx, "bk-1", "host-1", 160_000, "NGN"))
	require.NoError(t, s.EnsurePayout(ctx, "bk-1", "host-1", 160_000, "NGN"))

	payouts, err := s.ListPayouts(ctx, "host-1", false)
	require.NoError(t, err)
	assert.Len(t, payouts, 1)
}

func TestMarkPayoutPaid(t *testing.T) {
	s, gormDB := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsurePayout(ctx, "bk-1", "host-1", 160_000, "NGN"))
	payouts, err := s.ListPayouts(ctx, "host-1", true)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	payoutID := payouts[0].ID

	paid, alreadyPaid, err := s.MarkPayoutPaid(ctx, payoutID, MarkPaidRequest{
		Method: "bank_transfer", Reference: "TX1", Note: "June settlement", ActorID: "admin-1",
	})
	require.NoError(t, err)
	assert.False(t, alreadyPaid)
	assert.Equal(t, model.PayoutPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, "bank_transfer", *paid.PaidMethod)
	assert.Equal(t, "TX1", *paid.PaidReference)
	assert.Equal(t, "admin-1", *paid.PaidBy)

	// Retry converges to the same paid record with no new side effects.
	again, alreadyPaid, err := s.MarkPayoutPaid(ctx, payoutID, MarkPaidRequest{
		Method: "cash", Reference: "TX2", ActorID: "admin-2",
	})
	require.NoError(t, err)
	assert.True(t, alreadyPaid)
	assert.Equal(t, *paid.PaidReference, *again.PaidReference)
	assert.Equal(t, *paid.PaidMethod, *again.PaidMethod)
	assert.Equal(t, paid.PaidAt.Unix(), again.PaidAt.Unix())

	var audits int64
	require.NoError(t, gormDB.Model(&model.PayoutAuditEntry{}).
		Where("payout_id = ?", payoutID).Count(&audits).Error)
	assert.Equal(t, int64(1), audits, "exactly one audit entry per successful transition")

	_, _, err = s.MarkPayoutPaid(ctx, "missing", MarkPaidRequest{Method: "m", Reference: "r", ActorID: "a"})
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestBlockedRanges(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	held, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-1", CheckIn: day(10), CheckOut: day(13),
	})
	require.NoError(t, err)

	confirmedBk, err := s.CreateBooking(ctx, CreateBookingRequest{
		PropertyID: "prop-1", GuestID: "guest-2", CheckIn: day(20), CheckOut: day(23),
	})
	require.NoError(t, err)
	_, err = s.ConfirmPayment(ctx, confirmedBk.ID, "TX1")
	require.NoError(t, err)

	_, err = s.CreateBlock(ctx, CreateBlockRequest{
		PropertyID: "prop-1", HostID: "host-1", DateFrom: day(30), DateTo: day(33),
	})
	require.NoError(t, err)

	ranges, err := s.BlockedRanges(ctx, "prop-1", Window{})
	require.NoError(t, err)

	// pending_payment holds are not in the public view.
	require.Len(t, ranges.Bookings, 1)
	assert.Equal(t, confirmedBk.ID, ranges.Bookings[0].ID)
	assert.NotEqual(t, held.ID, ranges.Bookings[0].ID)
	require.Len(t, ranges.Blocks, 1)

	// Window filtering.
	from, to := day(19), day(24)
	ranges, err = s.BlockedRanges(ctx, "prop-1", Window{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, ranges.Bookings, 1)
	assert.Empty(t, ranges.Blocks)
}

func TestBlocks_OwnershipAndDeletion(t *testing.T) {
	s, gormDB := newTestStore(t)
	seedSettings(t, gormDB, model.ModeInstant)
	ctx := context.Background()

	_, err := s.CreateBlock(ctx, CreateBlockRequest{
		PropertyID: "prop-1", HostID: "not-the-host", DateFrom: day(1), DateTo: day(3),
	})
	assert.ErrorIs(t, err, booking.ErrForbidden)

	block, err := s.CreateBlock(ctx, CreateBlockRequest{
		PropertyID: "prop-1", HostID: "host-1", DateFrom: day(1), DateTo: day(3),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteBlock(ctx, block.ID, "not-the-host", false), booking.ErrForbidden)
	assert.NoError(t, s.DeleteBlock(ctx, block.ID, "host-1", false))
	assert.ErrorIs(t, s.DeleteBlock(ctx, block.ID, "host-1", false), booking.ErrNotFound)
}
