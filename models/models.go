package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a platform user. Identity management (registration, login,
// password recovery) lives outside this service; the ledger only reads this table.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string    `json:"phone"`
	IsBlocked bool      `json:"is_blocked"`
	IsAdmin   bool      `json:"is_admin" gorm:"default:false"`
	Wallet    Wallet    `json:"wallet,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PaymentAccount is a platform bank account users wire money into for recharges
// and resource purchases.
type PaymentAccount struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Bank      string    `json:"bank"`
	Number    string    `json:"number"`
	Holder    string    `json:"holder"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *PaymentAccount) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// WithdrawAccount is a user's external payout destination (bank account or card).
type WithdrawAccount struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;index" json:"user_id"`
	Bank      string    `json:"bank"`
	Number    string    `json:"number"`
	Holder    string    `json:"holder"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *WithdrawAccount) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
