package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserEventPass is one purchased ticket. IsConsumed and IsRefunded are terminal
// and mutually exclusive: a consumed ticket can never be refunded and a refunded
// ticket can never be consumed.
type UserEventPass struct {
	ID             string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string          `gorm:"type:uuid;index;not null" json:"user_id"`
	EventPassID    string          `gorm:"type:uuid;index;not null" json:"event_pass_id"`
	EventPass      EventPass       `json:"event_pass,omitempty" gorm:"foreignKey:EventPassID"`
	HolderName     string          `gorm:"not null" json:"holder_name"`
	HolderPhone    string          `json:"holder_phone"`
	HolderDocument string          `json:"holder_document"`
	PricePaid      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"price_paid"`
	IsConsumed     bool            `gorm:"default:false" json:"is_consumed"`
	IsRefunded     bool            `gorm:"default:false" json:"is_refunded"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	RedeemedAt     *time.Time      `json:"redeemed_at,omitempty"`
	RefundedAt     *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (u *UserEventPass) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
