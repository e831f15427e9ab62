package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EventPass is a sellable admission product priced in becoin. SoldTickets never
// exceeds LimitTickets.
type EventPass struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorUserID   string          `gorm:"type:uuid;index;not null" json:"creator_user_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	PriceBecoin     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"price_becoin"`
	LimitTickets    int             `gorm:"not null" json:"limit_tickets"`
	SoldTickets     int             `gorm:"not null;default:0" json:"sold_tickets"`
	IsRefundable    bool            `gorm:"default:false" json:"is_refundable"`
	RefundDaysLimit int             `gorm:"default:0" json:"refund_days_limit"`
	EventDate       time.Time       `json:"event_date"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (e *EventPass) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
