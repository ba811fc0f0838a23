package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bussywales/rentnow-sub000/internal/booking"
	"github.com/bussywales/rentnow-sub000/internal/model"
)

// Store defines every database operation of the booking and payout engine.
// The persistent store is the single source of truth; all concurrency
// control happens through its transactional guarantees.
type Store interface {
	DB() *gorm.DB

	Settings(ctx context.Context, propertyID string) (*model.ShortletSettings, error)
	BlockedRanges(ctx context.Context, propertyID string, window Window) (*BlockedRanges, error)

	CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.ShortletBooking, error)
	GetBooking(ctx context.Context, id string) (*model.ShortletBooking, error)
	ConfirmPayment(ctx context.Context, bookingID, reference string) (*model.ShortletBooking, error)
	RespondToBooking(ctx context.Context, bookingID, hostID string, accept bool) (*model.ShortletBooking, error)
	CancelBooking(ctx context.Context, bookingID, actorID string, isAdmin bool) (*model.ShortletBooking, error)

	SweepExpiredBookings(ctx context.Context, now time.Time, limit int) ([]model.ShortletBooking, error)
	CompleteFinishedStays(ctx context.Context, now time.Time, limit int) (int64, error)

	EnsurePayout(ctx context.Context, bookingID, hostID string, amountMinor int64, currency string) error
	ReconcilePayouts(ctx context.Context, now time.Time, limit int) (int, error)
	MarkPayoutPaid(ctx context.Context, payoutID string, req MarkPaidRequest) (*model.ShortletPayout, bool, error)

	CreateBlock(ctx context.Context, req CreateBlockRequest) (*model.ShortletBlock, error)
	DeleteBlock(ctx context.Context, blockID, hostID string, isAdmin bool) error

	ListBookingsForGuest(ctx context.Context, guestID string) ([]model.ShortletBooking, error)
	ListBookingsForHost(ctx context.Context, hostID string) ([]model.ShortletBooking, error)
	ListPayouts(ctx context.Context, hostID string, eligibleOnly bool) ([]model.ShortletPayout, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db            *gorm.DB
	paymentWindow time.Duration
}

// NewGormStore creates a new GORM-backed store. paymentWindow bounds how
// long an instant-mode booking may sit in pending_payment.
func NewGormStore(db *gorm.DB, paymentWindow time.Duration) Store {
	if paymentWindow <= 0 {
		paymentWindow = 30 * time.Minute
	}
	return &gormStore{db: db, paymentWindow: paymentWindow}
}

// DB exposes the underlying handle for read-only projections and tests.
func (s *gormStore) DB() *gorm.DB { return s.db }

// Settings loads the per-property booking configuration.
func (s *gormStore) Settings(ctx context.Context, propertyID string) (*model.ShortletSettings, error) {
	var settings model.ShortletSettings
	err := s.db.WithContext(ctx).Where("property_id = ?", propertyID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load shortlet settings for property %s: %w", propertyID, err)
	}
	return &settings, nil
}

// BlockedRanges returns active bookings and manual blocks overlapping the
// window. pending_payment holds are excluded from this public view; the
// create-time conflict check still accounts for them.
func (s *gormStore) BlockedRanges(ctx context.Context, propertyID string, window Window) (*BlockedRanges, error) {
	visible := []model.BookingStatus{model.StatusPending, model.StatusConfirmed}

	bookingQ := s.db.WithContext(ctx).
		Where("property_id = ? AND status IN ?", propertyID, visible)
	blockQ := s.db.WithContext(ctx).
		Where("property_id = ?", propertyID)

	if window.To != nil {
		bookingQ = bookingQ.Where("check_in < ?", *window.To)
		blockQ = blockQ.Where("date_from < ?", *window.To)
	}
	if window.From != nil {
		bookingQ = bookingQ.Where("check_out > ?", *window.From)
		blockQ = blockQ.Where("date_to > ?", *window.From)
	}

	var out BlockedRanges
	if err := bookingQ.Order("check_in").Find(&out.Bookings).Error; err != nil {
		return nil, fmt.Errorf("load blocked bookings for property %s: %w", propertyID, err)
	}
	if err := blockQ.Order("date_from").Find(&out.Blocks).Error; err != nil {
		return nil, fmt.Errorf("load blocks for property %s: %w", propertyID, err)
	}
	return &out, nil
}

// CreateBlock records a host-declared unavailable range.
func (s *gormStore) CreateBlock(ctx context.Context, req CreateBlockRequest) (*model.ShortletBlock, error) {
	if !req.DateFrom.Before(req.DateTo) {
		return nil, booking.ErrInvalidDateRange
	}
	settings, err := s.Settings(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if settings.HostID != req.HostID {
		return nil, booking.ErrForbidden
	}
	block := &model.ShortletBlock{
		PropertyID: req.PropertyID,
		HostID:     req.HostID,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Reason:     req.Reason,
	}
	if err := s.db.WithContext(ctx).Create(block).Error; err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	return block, nil
}

// DeleteBlock removes a host block. Only the owning host or an admin may
// remove it.
func (s *gormStore) DeleteBlock(ctx context.Context, blockID, hostID string, isAdmin bool) error {
	var block model.ShortletBlock
	err := s.db.WithContext(ctx).First(&block, "id = ?", blockID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load block %s: %w", blockID, err)
	}
	if !isAdmin && block.HostID != hostID {
		return booking.ErrForbidden
	}
	if err := s.db.WithContext(ctx).Delete(&block).Error; err != nil {
		return fmt.Errorf("delete block %s: %w", blockID, err)
	}
	return nil
}

// ListBookingsForGuest is the guest's booking history projection.
func (s *gormStore) ListBookingsForGuest(ctx context.Context, guestID string) ([]model.ShortletBooking, error) {
	var bookings []model.ShortletBooking
	err := s.db.WithContext(ctx).
		Where("guest_id = ?", guestID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("list bookings for guest %s: %w", guestID, err)
	}
	return bookings, nil
}

// ListBookingsForHost is the host's lead inbox projection.
func (s *gormStore) ListBookingsForHost(ctx context.Context, hostID string) ([]model.ShortletBooking, error) {
	var bookings []model.ShortletBooking
	err := s.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("list bookings for host %s: %w", hostID, err)
	}
	return bookings, nil
}
