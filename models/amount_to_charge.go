package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AmountToCharge is a QR-code charge prompt published by a merchant wallet. It
// is consumed (deleted) in the same database transaction as the transfer that
// pays it, so a prompt can only be paid once.
type AmountToCharge struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	WalletID     string          `gorm:"type:uuid;index;not null" json:"wallet_id"`
	Wallet       Wallet          `json:"-" gorm:"foreignKey:WalletID"`
	AmountBecoin decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount_becoin"`
	Concept      string          `json:"concept"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (a *AmountToCharge) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
