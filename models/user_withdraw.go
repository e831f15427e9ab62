package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserWithdraw is a debit-first external payout request. The wallet is debited
// when the row is created (funds reserved); a failed payout re-credits it.
type UserWithdraw struct {
	ID                string           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string           `gorm:"type:uuid;index;not null" json:"user_id"`
	WalletID          string           `gorm:"type:uuid;not null" json:"wallet_id"`
	WithdrawAccountID string           `gorm:"type:uuid;not null" json:"withdraw_account_id"`
	AmountBecoin      decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount_becoin"`
	AmountUSD         decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount_usd"`
	StateID           string           `gorm:"type:uuid;not null" json:"state_id"`
	State             TransactionState `json:"state,omitempty" gorm:"foreignKey:StateID"`
	TransactionID     string           `gorm:"type:uuid;not null" json:"transaction_id"`
	Transaction       Transaction      `json:"-" gorm:"foreignKey:TransactionID"`
	Observation       string           `json:"observation"`
	Reference         string           `json:"reference"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (w *UserWithdraw) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
