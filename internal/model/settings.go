package model

import "time"

// BookingMode controls whether payment alone confirms a stay or the host
// must accept first.
type BookingMode string

const (
	ModeInstant BookingMode = "instant"
	ModeRequest BookingMode = "request"
)

// ShortletSettings is the host's per-property booking configuration.
// Read-only to the booking engine; mutated by property-management flows.
type ShortletSettings struct {
	ID                 int64       `gorm:"primaryKey" json:"id"`
	PropertyID         string      `gorm:"size:36;uniqueIndex;not null" json:"property_id"`
	HostID             string      `gorm:"size:36;not null;index" json:"host_id"`
	Mode               BookingMode `gorm:"size:16;not null;default:instant" json:"mode"`
	NightlyRateMinor   int64       `gorm:"not null" json:"nightly_rate_minor"`
	CleaningFeeMinor   int64       `gorm:"not null;default:0" json:"cleaning_fee_minor"`
	DepositMinor       int64       `gorm:"not null;default:0" json:"deposit_minor"`
	Currency           string      `gorm:"size:8;not null" json:"currency"`
	MinNights          int         `gorm:"not null;default:1" json:"min_nights"`
	MaxNights          int         `gorm:"not null;default:0" json:"max_nights"` // 0 = no upper bound
	AdvanceNoticeHours int         `gorm:"not null;default:0" json:"advance_notice_hours"`
	PrepDays           int         `gorm:"not null;default:0" json:"prep_days"`
	CheckInTime        string      `gorm:"size:5;not null;default:'15:00'" json:"check_in_time"`
	CheckOutTime       string      `gorm:"size:5;not null;default:'11:00'" json:"check_out_time"`
	CreatedAt          time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time   `gorm:"not null" json:"updated_at"`
}
