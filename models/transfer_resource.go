package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Resource is a physical good purchasable by bank transfer.
type Resource struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	UnitPriceUSD decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"unit_price_usd"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (r *Resource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// TransferResource is a purchase-by-bank-transfer request for a quantity of a
// resource. It follows the same PENDING to COMPLETED/FAILED shape as a recharge
// but touches no wallet: completion mints a UserResource holding instead.
type TransferResource struct {
	ID               string           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string           `gorm:"type:uuid;index;not null" json:"user_id"`
	ResourceID       string           `gorm:"type:uuid;not null" json:"resource_id"`
	Resource         Resource         `json:"resource,omitempty" gorm:"foreignKey:ResourceID"`
	PaymentAccountID string           `gorm:"type:uuid;not null" json:"payment_account_id"`
	Reference        string           `gorm:"uniqueIndex;not null" json:"reference"`
	Quantity         int              `gorm:"not null" json:"quantity"`
	AmountUSD        decimal.Decimal  `gorm:"type:numeric(18,2);not null" json:"amount_usd"`
	StateID          string           `gorm:"type:uuid;not null" json:"state_id"`
	State            TransactionState `json:"state,omitempty" gorm:"foreignKey:StateID"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (t *TransferResource) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// UserResource is a redeemable holding of a resource minted when a transfer
// purchase is confirmed.
type UserResource struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"type:uuid;index;not null" json:"user_id"`
	ResourceID string    `gorm:"type:uuid;not null" json:"resource_id"`
	Resource   Resource  `json:"resource,omitempty" gorm:"foreignKey:ResourceID"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *UserResource) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
