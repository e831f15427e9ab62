package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RechargeTransfer is a bank-transfer funding request awaiting out-of-process
// confirmation. It is created PENDING together with a PENDING RECHARGE
// Transaction; the wallet is only credited when the transfer is confirmed.
type RechargeTransfer struct {
	ID               string           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string           `gorm:"type:uuid;index;not null" json:"user_id"`
	PaymentAccountID string           `gorm:"type:uuid;not null" json:"payment_account_id"`
	Reference        string           `gorm:"uniqueIndex;not null" json:"reference"`
	AmountUSD        decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount_usd"`
	AmountBecoin     decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount_becoin"`
	StateID          string           `gorm:"type:uuid;not null" json:"state_id"`
	State            TransactionState `json:"state,omitempty" gorm:"foreignKey:StateID"`
	TransactionID    string           `gorm:"type:uuid;not null" json:"transaction_id"`
	Transaction      Transaction      `json:"-" gorm:"foreignKey:TransactionID"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (r *RechargeTransfer) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
