package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet holds a single owner's balance in minor currency units.
// WalletNumber is the public transfer address. Version goes up by one with
// every balance change and orders cached balance snapshots.
type Wallet struct {
	ID           uuid.UUID       `gorm:"type:uuid;primarykey" json:"id"`
	UserID       uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	WalletNumber string          `gorm:"size:13;uniqueIndex;not null" json:"wallet_number"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0;check:chk_wallets_balance_non_negative,balance >= 0" json:"balance"`
	Currency     string          `gorm:"size:3;not null;default:'NGN'" json:"currency"`
	Version      int64           `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	// Ensure balance starts at 0
	w.Balance = decimal.Zero
	return nil
}
