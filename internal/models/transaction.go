package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

// Transaction types
const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTransferOut TransactionType = "transfer_out"
)

type TransactionStatus string

// Transaction statuses
const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// Transaction is one wallet's view of a balance-changing event. A transfer
// produces two rows, one per side.
type Transaction struct {
	ID            uuid.UUID         `gorm:"type:uuid;primarykey" json:"id"`
	WalletID      uuid.UUID         `gorm:"type:uuid;not null;index:idx_transactions_wallet_created,priority:1" json:"wallet_id"`
	Type          TransactionType   `gorm:"size:20;not null" json:"type"`
	Amount        decimal.Decimal   `gorm:"type:numeric(20,0);not null" json:"amount"`
	Status        TransactionStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	Reference     *string           `gorm:"size:255;uniqueIndex" json:"reference,omitempty"` // Payment provider reference
	Metadata      JSON              `gorm:"type:jsonb" json:"metadata,omitempty"`
	BalanceBefore decimal.Decimal   `gorm:"type:numeric(20,0);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal   `gorm:"type:numeric(20,0);not null" json:"balance_after"`
	CreatedAt     time.Time         `gorm:"index:idx_transactions_wallet_created,priority:2" json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsTerminal reports whether the status can no longer change.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSuccess || t.Status == TransactionStatusFailed
}

// CanTransitionTo enforces the forward-only state machine:
// pending -> success and pending -> failed.
func (t *Transaction) CanTransitionTo(next TransactionStatus) bool {
	if t.Status != TransactionStatusPending {
		return false
	}
	return next == TransactionStatusSuccess || next == TransactionStatusFailed
}

// ReferenceValue returns the provider reference or "" for transfers.
func (t *Transaction) ReferenceValue() string {
	if t.Reference == nil {
		return ""
	}
	return *t.Reference
}
