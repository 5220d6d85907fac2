package ledger

import (
	"context"

	"kobo/internal/models"

	"github.com/google/uuid"
)

// Service defines the ledger engine. Every amount is in minor units.
type Service interface {
	// Wallet provisioning
	CreateWallet(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error)
	EnsureWallet(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error)
	GetWallet(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error)

	// Read operations
	GetBalance(ctx context.Context, ownerID uuid.UUID) (*Balance, error)
	GetTransactionHistory(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Transaction, error)
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)

	// Transfer moves amount from the owner's wallet to the wallet with the
	// given number in one unit of work.
	Transfer(ctx context.Context, ownerID uuid.UUID, recipientWalletNumber string, amount int64) (*TransferResult, error)

	// Deposits
	CreatePendingDeposit(ctx context.Context, ownerID uuid.UUID, amount int64, reference string) (*models.Transaction, error)
	// SettleDeposit must only be called for notifications whose authenticity
	// has already been checked.
	SettleDeposit(ctx context.Context, reference string, verifiedAmount int64) (*Settlement, error)

	// Maintenance
	PurgeExpiredIdempotencyKeys(ctx context.Context) (int64, error)
}
