package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is an immutable ledger entry documenting one wallet-side effect of
// a value movement. Amount and type never change after creation; only the state
// of PENDING rows created by asynchronous workflows may transition, exactly once,
// to COMPLETED or FAILED.
type Transaction struct {
	ID              string           `gorm:"type:uuid;primaryKey" json:"id"`
	WalletID        string           `gorm:"type:uuid;index;not null" json:"wallet_id"`
	Wallet          Wallet           `json:"-" gorm:"foreignKey:WalletID"`
	TypeID          string           `gorm:"type:uuid;not null" json:"type_id"`
	Type            TransactionType  `json:"type,omitempty" gorm:"foreignKey:TypeID"`
	StateID         string           `gorm:"type:uuid;not null" json:"state_id"`
	State           TransactionState `json:"state,omitempty" gorm:"foreignKey:StateID"`
	Amount          decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount"`
	PostBalance     decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"post_balance"`
	RelatedWalletID *string          `gorm:"type:uuid" json:"related_wallet_id,omitempty"`
	Reference       *string          `json:"reference,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TransactionType is a catalog row naming a kind of value movement.
type TransactionType struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (t *TransactionType) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TransactionState is a catalog row for the lifecycle of asynchronous movements.
type TransactionState struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *TransactionState) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Transaction type codes
const (
	TypeRecharge            = "RECHARGE"
	TypeTransferSend        = "TRANSFER_SEND"
	TypeTransferReceived    = "TRANSFER_RECEIVED"
	TypePurchaseEventPass   = "PURCHASE_EVENTPASS"
	TypeSaleEventPass       = "SALE_EVENTPASS"
	TypeRefundEventPass     = "REFUND_EVENTPASS"
	TypeDevolutionEventPass = "DEVOLUTION_EVENTPASS"
	TypeWithdraw            = "WITHDRAW"
)

// Transaction state codes
const (
	StatePending   = "PENDING"
	StateCompleted = "COMPLETED"
	StateFailed    = "FAILED"
)
