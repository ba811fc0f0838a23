package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShortletBlock is a host-declared unavailable date range [DateFrom, DateTo).
// It is consulted like an active booking but never transitions state.
type ShortletBlock struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	PropertyID string    `gorm:"size:36;not null;index" json:"property_id"`
	HostID     string    `gorm:"size:36;not null" json:"host_id"`
	DateFrom   time.Time `gorm:"not null" json:"date_from"`
	DateTo     time.Time `gorm:"not null" json:"date_to"`
	Reason     string    `gorm:"size:256" json:"reason,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate assigns a UUID primary key.
func (b *ShortletBlock) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
