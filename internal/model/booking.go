package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingStatus enumerates the lifecycle states of a shortlet booking.
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "pending_payment"
	StatusPending        BookingStatus = "pending"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusDeclined       BookingStatus = "declined"
	StatusCancelled      BookingStatus = "cancelled"
	StatusExpired        BookingStatus = "expired"
	StatusCompleted      BookingStatus = "completed"
)

// ActiveStatuses are the statuses that still hold their date range.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{StatusPendingPayment, StatusPending, StatusConfirmed}
}

// ShortletBooking is a guest reservation for a property over [CheckIn, CheckOut).
// Bookings are never deleted, only transitioned.
type ShortletBooking struct {
	ID               string        `gorm:"primaryKey;size:36" json:"id"`
	PropertyID       string        `gorm:"size:36;not null;index:idx_bookings_property_status" json:"property_id"`
	GuestID          string        `gorm:"size:36;not null;index" json:"guest_id"`
	HostID           string        `gorm:"size:36;not null;index" json:"host_id"`
	CheckIn          time.Time     `gorm:"not null" json:"check_in"`
	CheckOut         time.Time     `gorm:"not null" json:"check_out"` // exclusive upper bound
	Nights           int           `gorm:"not null" json:"nights"`
	Status           BookingStatus `gorm:"size:32;not null;index:idx_bookings_property_status;index:idx_bookings_status_expires" json:"status"`
	TotalAmountMinor int64         `gorm:"not null" json:"total_amount_minor"`
	Currency         string        `gorm:"size:8;not null" json:"currency"`
	PricingSnapshot  string        `gorm:"type:text;not null" json:"pricing_snapshot"`
	PaymentReference *string       `gorm:"size:128" json:"payment_reference,omitempty"`
	ExpiresAt        *time.Time    `gorm:"index:idx_bookings_status_expires" json:"expires_at,omitempty"`
	RefundRequired   bool          `gorm:"not null;default:false" json:"refund_required"`
	CreatedAt        time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key.
func (b *ShortletBooking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// IsActive reports whether the booking still holds its date range.
func (b *ShortletBooking) IsActive() bool {
	switch b.Status {
	case StatusPendingPayment, StatusPending, StatusConfirmed:
		return true
	}
	return false
}

// IsTerminal reports whether the booking can no longer transition.
func (b *ShortletBooking) IsTerminal() bool {
	switch b.Status {
	case StatusDeclined, StatusCancelled, StatusExpired, StatusCompleted:
		return true
	}
	return false
}
