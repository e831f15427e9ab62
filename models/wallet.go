package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet holds a user's becoin balance. One wallet per user, created at
// onboarding and never deleted. The balance is only ever mutated inside a
// committed database transaction that also writes a Transaction row.
type Wallet struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Balance           decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"balance"`
	Alias             *string         `gorm:"uniqueIndex" json:"alias,omitempty"`
	WithdrawAccountID *string         `gorm:"type:uuid" json:"withdraw_account_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
