package repositories

import (
	"context"

	"kobo/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet-related database operations
type WalletRepository interface {
	// Create inserts a new wallet. A second wallet for the same owner yields
	// ErrDuplicateWallet, a taken wallet number ErrDuplicateWalletNumber.
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	GetByWalletNumber(ctx context.Context, walletNumber string) (*models.Wallet, error)
	ExistsByWalletNumber(ctx context.Context, walletNumber string) (bool, error)

	// LockByID reads the wallet with an exclusive row lock held until the
	// surrounding transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	// UpdateBalance persists wallet.Balance and bumps the version. The wallet
	// must have been read under LockByID in the same transaction.
	UpdateBalance(ctx context.Context, wallet *models.Wallet) error

	// Analytics and reporting
	GetTotalBalance(ctx context.Context) (decimal.Decimal, error)
}
