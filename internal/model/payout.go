package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutStatus enumerates the states of a host payout record.
type PayoutStatus string

const (
	PayoutEligible PayoutStatus = "eligible"
	PayoutPaid     PayoutStatus = "paid"
)

// ShortletPayout is the money owed to a host for a concluded stay.
// At most one payout exists per booking, enforced by the unique index.
// The only legal transition is eligible -> paid, exactly once.
type ShortletPayout struct {
	ID            string       `gorm:"primaryKey;size:36" json:"id"`
	BookingID     string       `gorm:"size:36;uniqueIndex;not null" json:"booking_id"`
	HostID        string       `gorm:"size:36;not null;index" json:"host_id"`
	AmountMinor   int64        `gorm:"not null" json:"amount_minor"`
	Currency      string       `gorm:"size:8;not null" json:"currency"`
	Status        PayoutStatus `gorm:"size:16;not null;index" json:"status"`
	PaidAt        *time.Time   `json:"paid_at,omitempty"`
	PaidMethod    *string      `gorm:"size:64" json:"paid_method,omitempty"`
	PaidReference *string      `gorm:"size:128" json:"paid_reference,omitempty"`
	PaidBy        *string      `gorm:"size:36" json:"paid_by,omitempty"`
	Note          *string      `gorm:"size:512" json:"note,omitempty"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key.
func (p *ShortletPayout) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PayoutAuditEntry records one mark-paid action. Append-only.
type PayoutAuditEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PayoutID  string    `gorm:"size:36;not null;index" json:"payout_id"`
	BookingID string    `gorm:"size:36;not null" json:"booking_id"`
	ActorID   string    `gorm:"size:36;not null" json:"actor_id"`
	Action    string    `gorm:"size:32;not null" json:"action"`
	Method    string    `gorm:"size:64" json:"method"`
	Reference string    `gorm:"size:128" json:"reference"`
	Note      string    `gorm:"size:512" json:"note"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
