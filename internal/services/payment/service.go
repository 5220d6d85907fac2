package payment

import (
	"context"
	"fmt"
	"strings"

	"kobo/internal/models"
	"kobo/internal/services/ledger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type service struct {
	ledger   Ledger
	provider Provider
	limits   Limits
	currency string
	logger   *zap.Logger
}

// NewService creates the deposit service.
func NewService(l Ledger, provider Provider, limits Limits, currency string, logger *zap.Logger) Service {
	if l == nil || provider == nil {
		panic("ledger and provider are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = ledger.DefaultCurrency
	}
	return &service{
		ledger:   l,
		provider: provider,
		limits:   limits,
		currency: currency,
		logger:   logger.Named("payment"),
	}
}

// InitiateDeposit opens a checkout with the provider and records the pending
// deposit under the reference the provider issued.
func (s *service) InitiateDeposit(ctx context.Context, req DepositRequest) (*DepositInitiation, error) {
	if req.Amount < s.limits.MinAmount || (s.limits.MaxAmount > 0 && req.Amount > s.limits.MaxAmount) {
		return nil, fmt.Errorf("%w: %w: amount must be between %d and %d",
			ledger.ErrValidation, ErrAmountOutOfRange, s.limits.MinAmount, s.limits.MaxAmount)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: %w", ledger.ErrValidation, ErrEmailRequired)
	}

	// The wallet must exist before money is taken from the payer.
	wallet, err := s.ledger.GetWallet(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	init, err := s.provider.InitializeDeposit(ctx, InitializeRequest{
		Email:    req.Email,
		Amount:   req.Amount,
		Currency: s.currency,
		Metadata: map[string]string{
			"user_id":       req.OwnerID.String(),
			"wallet_number": wallet.WalletNumber,
		},
	})
	if err != nil {
		s.logger.Error("deposit initialization failed",
			zap.String("provider", s.provider.Name()),
			zap.String("owner_id", req.OwnerID.String()),
			zap.Error(err))
		return nil, err
	}

	if _, err := s.ledger.CreatePendingDeposit(ctx, req.OwnerID, req.Amount, init.Reference); err != nil {
		s.logger.Error("failed to record pending deposit",
			zap.String("reference", init.Reference),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("deposit initiated",
		zap.String("provider", s.provider.Name()),
		zap.String("reference", init.Reference),
		zap.Int64("amount", req.Amount))
	return &DepositInitiation{
		Reference:        init.Reference,
		AuthorizationURL: init.AuthorizationURL,
		AccessCode:       init.AccessCode,
		Amount:           req.Amount,
		Provider:         s.provider.Name(),
	}, nil
}

// GetDepositStatus reports a deposit owned by ownerID. Deposits of other
// owners look exactly like missing ones.
func (s *service) GetDepositStatus(ctx context.Context, ownerID uuid.UUID, reference string) (*DepositStatus, error) {
	wallet, err := s.ledger.GetWallet(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	txn, err := s.ledger.FindTransactionByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn.WalletID != wallet.ID || txn.Type != models.TransactionTypeDeposit {
		return nil, ledger.ErrTransactionNotFound
	}

	amount, err := ledger.MinorUnits(txn.Amount)
	if err != nil {
		return nil, err
	}
	status := &DepositStatus{
		Reference: reference,
		Status:    string(txn.Status),
		Amount:    amount,
		CreatedAt: txn.CreatedAt,
	}
	if txn.Status == models.TransactionStatusSuccess {
		after, err := ledger.MinorUnits(txn.BalanceAfter)
		if err != nil {
			return nil, err
		}
		status.BalanceAfter = &after
	}
	return status, nil
}
