package payment

import (
	"context"

	"kobo/internal/models"
	"kobo/internal/services/ledger"

	"github.com/google/uuid"
)

// Provider starts a hosted checkout for a deposit.
type Provider interface {
	Name() string
	InitializeDeposit(ctx context.Context, req InitializeRequest) (*Initialization, error)
}

// Service defines deposit initiation and status lookups.
type Service interface {
	InitiateDeposit(ctx context.Context, req DepositRequest) (*DepositInitiation, error)
	GetDepositStatus(ctx context.Context, ownerID uuid.UUID, reference string) (*DepositStatus, error)
}

// Ledger is the part of the ledger engine the deposit flow depends on.
type Ledger interface {
	GetWallet(ctx context.Context, ownerID uuid.UUID) (*models.Wallet, error)
	CreatePendingDeposit(ctx context.Context, ownerID uuid.UUID, amount int64, reference string) (*models.Transaction, error)
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
}

var _ Ledger = (ledger.Service)(nil)
